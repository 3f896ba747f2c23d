package stream

import (
	"sync"
	"time"
)

// DefaultFeedbackInterval is the minimum spacing between realtime
// feedback pushes for one session.
const DefaultFeedbackInterval = 5 * time.Second

// Throttle rate-limits feedback per session. The throttling is
// unconditional: a denied result is dropped, never queued or replayed.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time
	now      func() time.Time
}

// ThrottleOption applies a configuration option to the Throttle.
type ThrottleOption func(*Throttle)

// WithThrottleClock overrides the time source for tests.
func WithThrottleClock(now func() time.Time) ThrottleOption {
	return func(t *Throttle) {
		if now != nil {
			t.now = now
		}
	}
}

// NewThrottle creates a throttle with the given minimum interval.
// Non-positive intervals fall back to the default.
func NewThrottle(interval time.Duration, opts ...ThrottleOption) *Throttle {
	if interval <= 0 {
		interval = DefaultFeedbackInterval
	}
	t := &Throttle{
		interval: interval,
		last:     make(map[string]time.Time),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Allow reports whether a feedback push for the session may be emitted
// now, and if so records the emission time.
func (t *Throttle) Allow(sessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.last[sessionID]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.last[sessionID] = now
	return true
}

// Forget drops the session's throttle state after teardown.
func (t *Throttle) Forget(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, sessionID)
}
