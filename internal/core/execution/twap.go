package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/charleschow/futures-bot/internal/core/order"
	"github.com/charleschow/futures-bot/internal/events"
	"github.com/charleschow/futures-bot/internal/telemetry"
)

const (
	DefaultTWAPSlices   = 4
	DefaultTWAPInterval = 2 * time.Second

	// sliceScale is the number of decimal places kept when splitting the
	// total; the last slice absorbs the rounding remainder.
	sliceScale = 8
)

// TWAPPlan splits Quantity into Slices equal MARKET orders spaced Interval apart.
type TWAPPlan struct {
	Symbol     string
	Side       order.Side
	Quantity   decimal.Decimal
	Slices     int
	Interval   time.Duration
	ReduceOnly bool
}

func (p TWAPPlan) Validate() error {
	if p.Symbol == "" {
		return &order.ValidationError{Field: "symbol", Reason: "is required"}
	}
	if p.Side != order.SideBuy && p.Side != order.SideSell {
		return &order.ValidationError{Field: "side", Reason: fmt.Sprintf("must be BUY or SELL, got %q", p.Side)}
	}
	if !p.Quantity.IsPositive() {
		return &order.ValidationError{Field: "quantity", Reason: "must be > 0"}
	}
	if p.Slices < 1 {
		return &order.ValidationError{Field: "slices", Reason: fmt.Sprintf("must be >= 1, got %d", p.Slices)}
	}
	if p.Interval < 0 {
		return &order.ValidationError{Field: "interval", Reason: "must be >= 0"}
	}
	if !p.SliceQuantities()[0].IsPositive() {
		return &order.ValidationError{Field: "quantity", Reason: fmt.Sprintf("%s is too small for %d slices", p.Quantity, p.Slices)}
	}
	return nil
}

// SliceQuantities returns per-slice sizes that sum exactly to Quantity.
func (p TWAPPlan) SliceQuantities() []decimal.Decimal {
	n := p.Slices
	if n < 1 {
		n = 1
	}
	per := p.Quantity.Div(decimal.NewFromInt(int64(n))).Truncate(sliceScale)

	out := make([]decimal.Decimal, n)
	for i := 0; i < n-1; i++ {
		out[i] = per
	}
	out[n-1] = p.Quantity.Sub(per.Mul(decimal.NewFromInt(int64(n - 1))))
	return out
}

type SliceResult struct {
	Index    int // 1-based
	Quantity decimal.Decimal
	Result
}

type TWAPReport struct {
	RunID  string
	Slices []SliceResult
}

func (r TWAPReport) Failed() int {
	n := 0
	for _, s := range r.Slices {
		if !s.Success {
			n++
		}
	}
	return n
}

// RunTWAP submits the plan's slices sequentially. A failed slice is recorded
// and the loop moves on; cancelling ctx stops it between slices. The error
// is non-nil only for an invalid plan or cancellation.
func (s *Service) RunTWAP(ctx context.Context, plan TWAPPlan) (TWAPReport, error) {
	plan.Symbol = order.Request{Symbol: plan.Symbol}.Normalize().Symbol
	if err := plan.Validate(); err != nil {
		telemetry.Metrics.ValidationRejects.Inc()
		return TWAPReport{}, err
	}

	report := TWAPReport{RunID: s.newID()}
	qtys := plan.SliceQuantities()

	telemetry.Infof("Starting TWAP: %s %s over %d slices every %s (run %s)",
		plan.Quantity, plan.Symbol, plan.Slices, plan.Interval, report.RunID)

	for i, qty := range qtys {
		idx := i + 1
		telemetry.Infof("TWAP slice %d/%d: placing market order for %s", idx, plan.Slices, qty)
		telemetry.Metrics.TWAPSlices.Inc()

		req := order.Request{
			Symbol:     plan.Symbol,
			Side:       plan.Side,
			Type:       order.TypeMarket,
			Quantity:   qty,
			ReduceOnly: plan.ReduceOnly,
		}
		res := s.submit(ctx, req, events.OrderOutcome{
			Command:   "twap",
			TWAPRunID: report.RunID,
			Slice:     idx,
			Slices:    plan.Slices,
		})
		if res.Err != nil {
			telemetry.Warnf("TWAP slice %d/%d failed: %v", idx, plan.Slices, res.Err)
		}
		report.Slices = append(report.Slices, SliceResult{Index: idx, Quantity: qty, Result: res})

		if idx < len(qtys) {
			if err := s.sleep(ctx, plan.Interval); err != nil {
				telemetry.Warnf("TWAP interrupted after slice %d/%d: %v", idx, plan.Slices, err)
				return report, err
			}
		}
	}

	telemetry.Infof("TWAP complete: %d/%d slices succeeded", len(report.Slices)-report.Failed(), len(report.Slices))
	return report, nil
}
