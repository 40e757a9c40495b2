package lanes

import (
	"fmt"
	"time"

	"github.com/charleschow/futures-bot/internal/core/order"
	"github.com/shopspring/decimal"
)

// Lane encapsulates order limits, throttle, and client-id dedup for a
// single symbol (or the "*" fallback).
type Lane struct {
	quantity   *QuantityGuard
	volume     *VolumeGuard
	throttle   *Throttle
	idempotent *IdempotencyGuard
}

func NewLane(maxOrderQty, maxRunQty decimal.Decimal, throttleMs int64) *Lane {
	return &Lane{
		quantity:   NewQuantityGuard(maxOrderQty),
		volume:     NewVolumeGuard(maxRunQty),
		throttle:   NewThrottle(throttleMs),
		idempotent: NewIdempotencyGuard(),
	}
}

// Unlimited is the lane used when no limits are configured.
func Unlimited() *Lane {
	return NewLane(decimal.Zero, decimal.Zero, 0)
}

// Check returns a ValidationError when req may not be sent.
func (l *Lane) Check(req order.Request) error {
	if req.ClientOrderID != "" && l.idempotent.HasSeen(req.ClientOrderID) {
		return &order.ValidationError{Field: "clientOrderId", Reason: fmt.Sprintf("%q already used in this run", req.ClientOrderID)}
	}
	if !l.quantity.Allow(req.Quantity) {
		return &order.ValidationError{Field: "quantity", Reason: fmt.Sprintf("%s exceeds max order quantity %s for %s", req.Quantity, l.quantity.Max(), req.Symbol)}
	}
	if !l.volume.CanUse(req.Quantity) {
		return &order.ValidationError{Field: "quantity", Reason: fmt.Sprintf("%s would exceed run quantity cap %s for %s (used %s)", req.Quantity, l.volume.Max(), req.Symbol, l.volume.Used())}
	}
	if wait := l.throttle.Remaining(); wait > 0 {
		return &order.ValidationError{Field: "symbol", Reason: fmt.Sprintf("%s throttled, next order allowed in %s", req.Symbol, wait.Round(time.Millisecond))}
	}
	return nil
}

// RecordOrder marks that req was handed to the exchange.
func (l *Lane) RecordOrder(req order.Request) {
	if req.ClientOrderID != "" {
		l.idempotent.Record(req.ClientOrderID)
	}
	l.volume.Record(req.Quantity)
	l.throttle.MarkSent()
}
