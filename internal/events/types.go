package events

import (
	"time"

	"github.com/charleschow/futures-bot/internal/core/order"
)

// OrderOutcome is published once per submission attempt, including
// attempts rejected locally before reaching the exchange.
type OrderOutcome struct {
	Command string // "market", "limit", "stop-market", "twap"
	Request order.Request

	Success bool
	OrderID int64
	Status  string
	ErrKind string // see order.Kind
	Err     string
	Raw     []byte
	Latency time.Duration

	// Set for TWAP slices only.
	TWAPRunID string
	Slice     int
	Slices    int
}
