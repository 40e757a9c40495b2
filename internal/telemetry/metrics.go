package telemetry

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

type Counter struct {
	val atomic.Int64
}

func (c *Counter) Inc()         { c.val.Add(1) }
func (c *Counter) Value() int64 { return c.val.Load() }

// LatencyTracker keeps the most recent maxKeep samples.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	maxKeep int
}

func NewLatencyTracker(maxKeep int) *LatencyTracker {
	return &LatencyTracker{maxKeep: maxKeep}
}

func (lt *LatencyTracker) Record(d time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.samples = append(lt.samples, d)
	if len(lt.samples) > lt.maxKeep {
		lt.samples = lt.samples[len(lt.samples)-lt.maxKeep:]
	}
}

func (lt *LatencyTracker) Count() int {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return len(lt.samples)
}

func (lt *LatencyTracker) P50() time.Duration { return lt.percentile(0.50) }
func (lt *LatencyTracker) P99() time.Duration { return lt.percentile(0.99) }

func (lt *LatencyTracker) Max() time.Duration {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	if len(lt.samples) == 0 {
		return 0
	}
	return slices.Max(lt.samples)
}

func (lt *LatencyTracker) percentile(p float64) time.Duration {
	lt.mu.Lock()
	sorted := slices.Clone(lt.samples)
	lt.mu.Unlock()

	if len(sorted) == 0 {
		return 0
	}
	slices.Sort(sorted)
	return sorted[int(float64(len(sorted)-1)*p)]
}

type sessionMetrics struct {
	OrdersSent        Counter
	OrderErrors       Counter
	ValidationRejects Counter
	LaneRejects       Counter
	TWAPSlices        Counter
	OrderLatency      *LatencyTracker
	RateLimiterWait   *LatencyTracker
}

// Summary is a one-line report of the session; empty when no order reached
// the exchange and nothing was rejected.
func (m *sessionMetrics) Summary() string {
	rejected := m.ValidationRejects.Value() + m.LaneRejects.Value()
	if m.OrderLatency.Count() == 0 && rejected == 0 {
		return ""
	}
	s := fmt.Sprintf("sent=%d errors=%d rejected=%d",
		m.OrdersSent.Value(), m.OrderErrors.Value(), rejected)
	if n := m.TWAPSlices.Value(); n > 0 {
		s += fmt.Sprintf(" twap_slices=%d", n)
	}
	if m.OrderLatency.Count() > 0 {
		s += fmt.Sprintf(" p50=%s p99=%s", m.OrderLatency.P50(), m.OrderLatency.P99())
	}
	if wait := m.RateLimiterWait.Max(); wait > time.Millisecond {
		s += fmt.Sprintf(" max_limiter_wait=%s", wait)
	}
	return s
}

// Metrics counts this process's order activity.
var Metrics = &sessionMetrics{
	OrderLatency:    NewLatencyTracker(1000),
	RateLimiterWait: NewLatencyTracker(1000),
}
