package events

import "time"

// Event is the envelope that flows through the event bus.
type Event struct {
	ID        string
	Type      EventType
	Symbol    string
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	// Execution events
	EventOrderResult EventType = "order_result"
	// Stream events
	EventMarkPrice EventType = "mark_price"
)
