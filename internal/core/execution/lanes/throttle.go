package lanes

import (
	"sync"
	"time"
)

// Throttle spaces consecutive orders on one symbol at least interval apart.
// A zero interval never throttles.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	lastSend time.Time
	now      func() time.Time
}

func NewThrottle(intervalMs int64) *Throttle {
	return &Throttle{
		interval: time.Duration(intervalMs) * time.Millisecond,
		now:      time.Now,
	}
}

// Remaining is how long until the next order may go out; zero means now.
func (t *Throttle) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.interval <= 0 || t.lastSend.IsZero() {
		return 0
	}
	if wait := t.interval - t.now().Sub(t.lastSend); wait > 0 {
		return wait
	}
	return 0
}

// MarkSent starts a new interval.
func (t *Throttle) MarkSent() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSend = t.now()
}
