// Package throttle spaces out consecutive calls to a rate-limited collaborator
package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/raykavin/dexscout/pkg/core"
)

// Sleeper blocks for d or until ctx is done, whichever happens first
type Sleeper func(ctx context.Context, d time.Duration) error

// Throttle guarantees at least Interval between the starts of two consecutive calls.
// The first call never waits.
type Throttle struct {
	interval time.Duration
	clock    core.Clock
	sleep    Sleeper

	mu   sync.Mutex
	last time.Time
}

// Option configures a Throttle
type Option func(*Throttle)

// WithClock replaces the wall clock
func WithClock(clock core.Clock) Option {
	return func(t *Throttle) {
		t.clock = clock
	}
}

// WithSleeper replaces the context-aware sleep
func WithSleeper(sleep Sleeper) Option {
	return func(t *Throttle) {
		t.sleep = sleep
	}
}

// New creates a throttle. A non-positive interval disables waiting.
func New(interval time.Duration, options ...Option) *Throttle {
	t := &Throttle{
		interval: interval,
		clock:    time.Now,
		sleep:    Sleep,
	}

	for _, option := range options {
		option(t)
	}

	return t
}

// Interval returns the configured spacing
func (t *Throttle) Interval() time.Duration {
	return t.interval
}

// Wait blocks until the interval since the previous Wait has elapsed, then marks a new
// call. It returns ctx.Err() if the context ends first; the call is then not recorded.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.interval > 0 && !t.last.IsZero() {
		if remaining := t.interval - t.clock().Sub(t.last); remaining > 0 {
			if err := t.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}

	t.last = t.clock()
	return nil
}

// Touch restarts the interval from now. Calling it when a slow call finishes turns the
// spacing into a pause between the end of one call and the start of the next.
func (t *Throttle) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = t.clock()
}

// Reset forgets the previous call so the next Wait returns immediately
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = time.Time{}
}

// Sleep is the default Sleeper backed by a timer
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
