package lanes

import "sync"

// IdempotencyGuard prevents reusing a client order id within a lane.
// The exchange would reject the duplicate anyway; catching it locally
// keeps the request off the wire.
type IdempotencyGuard struct {
	mu   sync.RWMutex
	seen map[string]bool
}

func NewIdempotencyGuard() *IdempotencyGuard {
	return &IdempotencyGuard{
		seen: make(map[string]bool),
	}
}

func (g *IdempotencyGuard) HasSeen(key string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.seen[key]
}

func (g *IdempotencyGuard) Record(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen[key] = true
}
