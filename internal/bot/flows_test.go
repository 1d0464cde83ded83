package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFlowTakeConsumesToken(t *testing.T) {
	r := newFlowRegistry(time.Minute)

	token := r.create("U1")
	assert.True(t, r.take(token, "U1"))
	assert.False(t, r.take(token, "U1"), "a token is single-use")
}

func TestFlowTakeRejectsOtherUser(t *testing.T) {
	r := newFlowRegistry(time.Minute)

	token := r.create("U1")
	assert.False(t, r.take(token, "U2"))
}

func TestFlowTakeUnknownToken(t *testing.T) {
	r := newFlowRegistry(time.Minute)
	assert.False(t, r.take("bogus", "U1"))
}

func TestFlowExpiry(t *testing.T) {
	r := newFlowRegistry(time.Minute)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	token := r.create("U1")
	now = now.Add(2 * time.Minute)
	assert.False(t, r.take(token, "U1"), "expired flow must be discarded")
}

func TestFlowPurgeOnCreate(t *testing.T) {
	r := newFlowRegistry(time.Minute)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.create("U1")
	r.create("U2")
	now = now.Add(5 * time.Minute)
	r.create("U3")

	r.mu.RLock()
	defer r.mu.RUnlock()
	assert.Len(t, r.flows, 1, "stale flows are purged on create")
}
