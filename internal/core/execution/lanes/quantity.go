package lanes

import (
	"sync"

	"github.com/shopspring/decimal"
)

// QuantityGuard caps the size of a single order. A zero cap disables it.
type QuantityGuard struct {
	maxOrderQty decimal.Decimal
}

func NewQuantityGuard(maxOrderQty decimal.Decimal) *QuantityGuard {
	return &QuantityGuard{maxOrderQty: maxOrderQty}
}

func (q *QuantityGuard) Allow(qty decimal.Decimal) bool {
	return q.maxOrderQty.IsZero() || qty.LessThanOrEqual(q.maxOrderQty)
}

func (q *QuantityGuard) Max() decimal.Decimal { return q.maxOrderQty }

// VolumeGuard tracks cumulative quantity submitted through a lane during
// one process run and enforces a cap. A zero cap disables it.
type VolumeGuard struct {
	mu     sync.Mutex
	maxQty decimal.Decimal
	used   decimal.Decimal
}

func NewVolumeGuard(maxQty decimal.Decimal) *VolumeGuard {
	return &VolumeGuard{maxQty: maxQty}
}

func (v *VolumeGuard) CanUse(qty decimal.Decimal) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.maxQty.IsZero() || v.used.Add(qty).LessThanOrEqual(v.maxQty)
}

func (v *VolumeGuard) Record(qty decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.used = v.used.Add(qty)
}

func (v *VolumeGuard) Used() decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.used
}

func (v *VolumeGuard) Max() decimal.Decimal { return v.maxQty }
