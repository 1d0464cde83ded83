package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tourneykit/slotbot/internal/engine"
)

// Executor runs the external effects produced by a sweep (role revokes,
// live-view refreshes). Implemented by the bot layer.
type Executor interface {
	Execute(ctx context.Context, effects []engine.Effect)
}

// Scheduler fires the daily reset sweep. It ticks well below the trigger
// granularity and remembers the last fired minute-window, so a slow tick
// can neither skip a trigger nor fire it twice.
type Scheduler struct {
	engine    *engine.Engine
	executor  Executor
	resetTime string // HH:MM
	location  *time.Location
	interval  time.Duration
	now       func() time.Time

	lastFired string

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// Option tweaks a Scheduler, for tests.
type Option func(*Scheduler)

// WithInterval overrides the tick interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.interval = d }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a Scheduler firing at resetTime (HH:MM) in the given location.
func New(eng *engine.Engine, exec Executor, resetTime string, loc *time.Location, opts ...Option) *Scheduler {
	s := &Scheduler{
		engine:    eng,
		executor:  exec,
		resetTime: resetTime,
		location:  loc,
		interval:  time.Minute,
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the tick loop. Blocks until the context is cancelled or
// Stop is called; run it in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("Starting reset scheduler", "resetTime", s.resetTime, "interval", s.interval)

	s.wg.Add(1)
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Reset scheduler stopped (context cancelled)")
			return
		case <-s.stopChan:
			slog.Info("Reset scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Stop signals the scheduler to stop and waits for the loop to exit.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

// Tick checks the wall clock and fires the sweep when the configured
// trigger window is reached for the first time.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now().In(s.location)
	if now.Format("15:04") != s.resetTime {
		return
	}
	window := now.Format("2006-01-02 15:04")
	if window == s.lastFired {
		return
	}
	s.lastFired = window

	s.fire(ctx, now)
}

func (s *Scheduler) fire(ctx context.Context, now time.Time) {
	slog.Info("Running daily reset sweep")

	res, effects, err := s.engine.Sweep(now)
	if err != nil {
		slog.Error("Reset sweep completed but state save failed", "error", err)
	}

	if s.executor != nil && len(effects) > 0 {
		s.executor.Execute(ctx, effects)
	}

	slog.Info("Reset sweep complete",
		"released", res.Released,
		"teamsExpired", res.TeamsExpired)
}
