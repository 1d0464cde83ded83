package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourneykit/slotbot/internal/engine"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "slots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)

	want := sampleSnapshot()
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, want.Teams["111"].Name, got.Teams["111"].Name)
	assert.Equal(t, want.Teams["111"].Players, got.Teams["111"].Players)
	assert.True(t, want.Teams["111"].LastUpdated.Equal(got.Teams["111"].LastUpdated))
	// Bookings are rebuilt from the occupant table.
	assert.Equal(t, []engine.SlotID{"SLOT_1"}, got.Teams["111"].BookedSlots)
	assert.Equal(t, []engine.SlotID{}, got.Teams["222"].BookedSlots)
	assert.Equal(t, []string{"111"}, got.Slots["SLOT_1"])
	assert.Equal(t, "msg-123", got.TableMessages["SLOT_1"])
	assert.False(t, got.RegistrationOpen)
}

func TestSQLiteStoreEmptyDatabase(t *testing.T) {
	s := newTestSQLiteStore(t)

	snap, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Teams)
	assert.Empty(t, snap.Slots)
	assert.True(t, snap.RegistrationOpen)
}

func TestSQLiteStoreSaveReplacesPrevious(t *testing.T) {
	s := newTestSQLiteStore(t)
	require.NoError(t, s.Save(sampleSnapshot()))

	second := engine.NewSnapshot()
	second.Slots["SLOT_3"] = []string{"999"}
	require.NoError(t, s.Save(second))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, got.Teams)
	assert.Empty(t, got.TableMessages)
	assert.Equal(t, []string{"999"}, got.Slots["SLOT_3"])
	assert.True(t, got.RegistrationOpen)
}

func TestSQLiteStorePreservesOccupantOrder(t *testing.T) {
	s := newTestSQLiteStore(t)

	snap := engine.NewSnapshot()
	snap.Slots["SLOT_1"] = []string{"c", "a", "b"}
	require.NoError(t, s.Save(snap))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, got.Slots["SLOT_1"])
}
