package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/futures-bot/internal/core/order"
	"github.com/charleschow/futures-bot/internal/events"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "data", "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	price := decimal.RequireFromString("30000")
	limit := events.OrderOutcome{
		Command: "limit",
		Request: order.Request{
			Symbol: "BTCUSDT", Side: order.SideBuy, Type: order.TypeLimit,
			Quantity: decimal.RequireFromString("0.002"), Price: &price, ClientOrderID: "cid-1",
		},
		Success: true,
		OrderID: 77,
		Status:  "NEW",
		Raw:     []byte(`{"orderId":77}`),
		Latency: 120 * time.Millisecond,
	}
	rejected := events.OrderOutcome{
		Command: "stop-market",
		Request: order.Request{Symbol: "BTCUSDT", Side: order.SideSell, Type: order.TypeStopMarket, Quantity: decimal.RequireFromString("0.002")},
		ErrKind: "validation",
		Err:     "invalid stopPrice: STOP_MARKET orders require --stop-price",
	}

	require.NoError(t, s.Record(ctx, time.Now(), limit))
	require.NoError(t, s.Record(ctx, time.Now(), rejected))

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	newest, oldest := entries[0], entries[1]
	assert.Equal(t, "stop-market", newest.Command)
	assert.False(t, newest.Success)
	assert.Equal(t, "validation", newest.ErrKind)
	assert.Empty(t, newest.StopPrice)

	assert.Equal(t, "limit", oldest.Command)
	assert.True(t, oldest.Success)
	assert.Equal(t, "30000", oldest.Price)
	assert.Equal(t, "0.002", oldest.Quantity)
	assert.Equal(t, int64(77), oldest.OrderID)
	assert.Equal(t, "cid-1", oldest.ClientOrderID)
	assert.Equal(t, int64(120), oldest.LatencyMs)
	assert.Equal(t, `{"orderId":77}`, oldest.Raw)
}

func TestStore_SubscribedToBus(t *testing.T) {
	s := openTestStore(t)
	bus := events.NewBus()
	s.Subscribe(bus)

	for i := 1; i <= 3; i++ {
		bus.Publish(events.Event{
			Type:      events.EventOrderResult,
			Symbol:    "ETHUSDT",
			Timestamp: time.Now(),
			Payload: events.OrderOutcome{
				Command:   "twap",
				Request:   order.Request{Symbol: "ETHUSDT", Side: order.SideBuy, Type: order.TypeMarket, Quantity: decimal.RequireFromString("0.1")},
				Success:   true,
				OrderID:   int64(i),
				TWAPRunID: "run-1",
				Slice:     i,
				Slices:    3,
			},
		})
	}
	bus.Publish(events.Event{Type: events.EventOrderResult, Payload: "not an outcome"})

	run, err := s.TWAPRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, run, 3)
	for i, e := range run {
		assert.Equal(t, i+1, e.Slice)
		assert.Equal(t, "twap", e.Command)
	}
}

func TestStore_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.db")
	s, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), time.Time{}, events.OrderOutcome{
		Command: "market",
		Request: order.Request{Symbol: "BTCUSDT", Side: order.SideBuy, Type: order.TypeMarket, Quantity: decimal.NewFromInt(1)},
	}))
	require.NoError(t, s.Close())

	s, err = OpenStore(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, int64(1), s.rowCount)
}

func TestStore_CloseNil(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close())
}
