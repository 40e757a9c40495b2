package events

import (
	"sync"

	"github.com/charleschow/futures-bot/internal/telemetry"
)

// Handler processes an event. A returned error is logged; dispatch continues.
type Handler func(Event) error

type subscription struct {
	id uint64
	h  Handler
}

// Bus is a synchronous in-process event bus. Handlers run in registration
// order on the publisher's goroutine, so an order result is journaled
// before Submit returns.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[EventType][]subscription
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[EventType][]subscription),
	}
}

// Subscribe registers h for eventType and returns a func that removes it.
func (b *Bus) Subscribe(eventType EventType, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[eventType] = append(b.subs[eventType], subscription{id: id, h: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[eventType]
		for i, s := range subs {
			if s.id == id {
				b.subs[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish dispatches e to its type's handlers and returns how many failed.
// A nil bus drops the event.
func (b *Bus) Publish(e Event) (failed int) {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	subs := b.subs[e.Type]
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.h(e); err != nil {
			failed++
			telemetry.Warnf("events: %s handler failed: %v", e.Type, err)
		}
	}
	return failed
}
