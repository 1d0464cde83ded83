package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourneykit/slotbot/internal/engine"
)

type recordingExecutor struct {
	mu      sync.Mutex
	batches [][]engine.Effect
}

func (r *recordingExecutor) Execute(ctx context.Context, effects []engine.Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, effects)
}

func (r *recordingExecutor) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func newSweepEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.New(nil, nil, engine.Options{
		SlotOrder:      []engine.SlotID{"SLOT_1", "SLOT_2"},
		Capacity:       5,
		Retention:      7 * 24 * time.Hour,
		AllowMultiSlot: true,
	})
	_, _, err := eng.RegisterTeam("U1", "Alpha", []string{"cap"})
	require.NoError(t, err)
	_, err2 := eng.ClaimSlot("U1", "SLOT_1")
	require.NoError(t, err2)
	return eng
}

func TestTickFiresOnlyInTriggerWindow(t *testing.T) {
	eng := newSweepEngine(t)
	exec := &recordingExecutor{}

	now := time.Date(2026, 9, 1, 5, 59, 30, 0, time.UTC)
	s := New(eng, exec, "06:00", time.UTC, WithClock(func() time.Time { return now }))

	s.Tick(context.Background())
	assert.Zero(t, exec.count(), "must not fire before the trigger time")
	assert.Len(t, eng.Occupants("SLOT_1"), 1)

	now = time.Date(2026, 9, 1, 6, 0, 10, 0, time.UTC)
	s.Tick(context.Background())
	assert.Equal(t, 1, exec.count())
	assert.Empty(t, eng.Occupants("SLOT_1"))
}

func TestTickDoesNotDoubleFireWithinWindow(t *testing.T) {
	eng := newSweepEngine(t)
	exec := &recordingExecutor{}

	now := time.Date(2026, 9, 1, 6, 0, 5, 0, time.UTC)
	s := New(eng, exec, "06:00", time.UTC, WithClock(func() time.Time { return now }))

	s.Tick(context.Background())
	// Second tick lands in the same minute, e.g. after a slow first tick.
	now = now.Add(20 * time.Second)
	s.Tick(context.Background())

	assert.Equal(t, 1, exec.count())
}

func TestTickFiresAgainNextDay(t *testing.T) {
	eng := newSweepEngine(t)
	exec := &recordingExecutor{}

	now := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	s := New(eng, exec, "06:00", time.UTC, WithClock(func() time.Time { return now }))

	s.Tick(context.Background())
	now = now.Add(24 * time.Hour)
	s.Tick(context.Background())

	assert.Equal(t, 2, exec.count())
}

func TestSweepReopensRegistration(t *testing.T) {
	eng := newSweepEngine(t)
	require.NoError(t, eng.SetRegistrationOpen(false))
	exec := &recordingExecutor{}

	now := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	s := New(eng, exec, "06:00", time.UTC, WithClock(func() time.Time { return now }))
	s.Tick(context.Background())

	assert.True(t, eng.RegistrationOpen())
}

func TestStartStop(t *testing.T) {
	eng := newSweepEngine(t)
	s := New(eng, &recordingExecutor{}, "06:00", time.UTC, WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	time.Sleep(30 * time.Millisecond)
	s.Stop()
}
