package usecase

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

const defaultTickInterval = time.Second

// ElapsedTicker periodically publishes the session status through the
// lifecycle's event sink while a session is active, so views can render
// elapsed sleep time without polling.
type ElapsedTicker struct {
	lifecycle *SessionLifecycle
	clock     clockwork.Clock
	interval  time.Duration
}

func NewElapsedTicker(lifecycle *SessionLifecycle, clock clockwork.Clock, interval time.Duration) *ElapsedTicker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = defaultTickInterval
	}
	return &ElapsedTicker{lifecycle: lifecycle, clock: clock, interval: interval}
}

// Run blocks until ctx is cancelled.
func (t *ElapsedTicker) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.lifecycle.publishTick()
		}
	}
}
