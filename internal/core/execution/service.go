package execution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/charleschow/futures-bot/internal/adapters/outbound/binance_http"
	"github.com/charleschow/futures-bot/internal/core/execution/lanes"
	"github.com/charleschow/futures-bot/internal/core/order"
	"github.com/charleschow/futures-bot/internal/events"
	"github.com/charleschow/futures-bot/internal/telemetry"
)

var _ OrderPlacer = (*binance_http.Client)(nil)

// Result is the synchronous outcome of one submission.
type Result struct {
	Success bool
	Order   *binance_http.OrderResponse // nil unless Success
	Raw     []byte                      // response body, also set for exchange rejections
	Err     error
	Latency time.Duration
}

// Service validates an order, applies the symbol lane's limits, places it
// through the exchange client and publishes the outcome on the bus.
//
// Every call is one blocking request. Nothing is retried.
type Service struct {
	bus    *events.Bus
	router *LaneRouter
	client OrderPlacer
	newID  func() string
	sleep  func(context.Context, time.Duration) error
}

// NewService builds a service. A nil router routes every symbol through a
// single unlimited lane.
func NewService(bus *events.Bus, router *LaneRouter, client OrderPlacer) *Service {
	if router == nil {
		router = NewLaneRouter()
		router.Register(fallbackLane, lanes.Unlimited())
	}
	return &Service{
		bus:    bus,
		router: router,
		client: client,
		newID:  uuid.NewString,
		sleep:  sleepCtx,
	}
}

// Submit places a single MARKET, LIMIT or STOP_MARKET order.
func (s *Service) Submit(ctx context.Context, req order.Request) Result {
	return s.submit(ctx, req, events.OrderOutcome{Command: commandName(req.Type)})
}

func (s *Service) submit(ctx context.Context, req order.Request, outcome events.OrderOutcome) Result {
	req = req.Normalize()
	if req.ClientOrderID == "" {
		req.ClientOrderID = s.newID()
	}
	outcome.Request = req

	telemetry.Infof("Placing %s %s order for %s %s%s", req.Type, req.Side, req.Quantity, req.Symbol, priceSuffix(req))

	res := s.place(ctx, req)

	outcome.Success = res.Success
	outcome.Raw = res.Raw
	outcome.Latency = res.Latency
	if res.Order != nil {
		outcome.OrderID = res.Order.OrderID
		outcome.Status = res.Order.Status
	}
	if res.Err != nil {
		outcome.ErrKind = order.Kind(res.Err)
		outcome.Err = res.Err.Error()
	}

	s.bus.Publish(events.Event{
		ID:        req.ClientOrderID,
		Type:      events.EventOrderResult,
		Symbol:    req.Symbol,
		Timestamp: time.Now(),
		Payload:   outcome,
	})
	return res
}

func (s *Service) place(ctx context.Context, req order.Request) Result {
	if err := req.Validate(); err != nil {
		telemetry.Metrics.ValidationRejects.Inc()
		telemetry.Errorf("Rejected %s order: %v", req.Type, err)
		return Result{Err: err}
	}

	lane := s.router.Route(req.Symbol)
	if lane == nil {
		telemetry.Metrics.LaneRejects.Inc()
		err := &order.ValidationError{Field: "symbol", Reason: fmt.Sprintf("%s is not listed in the order limits", req.Symbol)}
		telemetry.Errorf("Rejected %s order: %v", req.Type, err)
		return Result{Err: err}
	}
	if err := lane.Check(req); err != nil {
		telemetry.Metrics.LaneRejects.Inc()
		telemetry.Errorf("Rejected %s order: %v", req.Type, err)
		return Result{Err: err}
	}
	lane.RecordOrder(req)

	start := time.Now()
	resp, err := s.client.PlaceOrder(ctx, req)
	latency := time.Since(start)
	telemetry.Metrics.OrderLatency.Record(latency)

	if err != nil {
		telemetry.Metrics.OrderErrors.Inc()
		telemetry.Errorf("Failed to place %s order: %v", strings.ToLower(string(req.Type)), err)
		res := Result{Err: err, Latency: latency}
		var aerr *order.AuthError
		var xerr *order.ExchangeError
		switch {
		case errors.As(err, &aerr):
			res.Raw = []byte(aerr.Body)
		case errors.As(err, &xerr):
			res.Raw = []byte(xerr.Body)
		}
		return res
	}

	telemetry.Metrics.OrdersSent.Inc()
	if !resp.Decoded() {
		telemetry.Warnf("Order accepted (client_id=%s) but the response could not be decoded: %s",
			req.ClientOrderID, resp.Raw)
		return Result{Success: true, Order: resp, Raw: resp.Raw, Latency: latency}
	}
	telemetry.Infof("Order placed successfully. order_id=%d status=%s client_id=%s (%s)",
		resp.OrderID, resp.Status, resp.ClientOrderID, latency)
	if pretty, err := json.MarshalIndent(json.RawMessage(resp.Raw), "", "  "); err == nil {
		telemetry.Debugf("%s", pretty)
	}

	return Result{Success: true, Order: resp, Raw: resp.Raw, Latency: latency}
}

func commandName(t order.Type) string {
	return strings.ReplaceAll(strings.ToLower(string(t)), "_", "-")
}

func priceSuffix(req order.Request) string {
	switch {
	case req.Price != nil:
		return " at " + req.Price.String()
	case req.StopPrice != nil:
		return " with stopPrice " + req.StopPrice.String()
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
