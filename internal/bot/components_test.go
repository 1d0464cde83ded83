package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tourneykit/slotbot/internal/engine"
)

func TestReasonMessageCoversAllReasons(t *testing.T) {
	reasons := []engine.Reason{
		engine.ReasonRegistrationClosed,
		engine.ReasonUnknownSlot,
		engine.ReasonSlotFull,
		engine.ReasonAlreadyClaimed,
		engine.ReasonNotRegistered,
		engine.ReasonNotOwner,
		engine.ReasonAllSlotsFull,
		engine.ReasonEmptyPosition,
		engine.ReasonNothingBooked,
		engine.ReasonAlreadyHasSlot,
	}

	fallback := reasonMessage("no_such_reason")
	seen := make(map[string]bool)
	for _, r := range reasons {
		msg := reasonMessage(r)
		assert.NotEmpty(t, msg)
		assert.NotEqual(t, fallback, msg, "reason %s has no dedicated message", r)
		seen[msg] = true
	}
	assert.Len(t, seen, len(reasons), "messages must be distinct")
}
