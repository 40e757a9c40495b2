package lanes

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/futures-bot/internal/core/order"
)

func req(qty, cid string) order.Request {
	return order.Request{
		Symbol:        "BTCUSDT",
		Side:          order.SideBuy,
		Type:          order.TypeMarket,
		Quantity:      decimal.RequireFromString(qty),
		ClientOrderID: cid,
	}
}

func TestLane_MaxOrderQuantity(t *testing.T) {
	lane := NewLane(decimal.RequireFromString("0.05"), decimal.Zero, 0)

	assert.NoError(t, lane.Check(req("0.05", "")))
	assert.Error(t, lane.Check(req("0.051", "")))
}

func TestLane_RunQuantityCap(t *testing.T) {
	lane := NewLane(decimal.Zero, decimal.RequireFromString("0.1"), 0)

	first := req("0.06", "a")
	require.NoError(t, lane.Check(first))
	lane.RecordOrder(first)

	assert.Error(t, lane.Check(req("0.05", "b")))
	assert.NoError(t, lane.Check(req("0.04", "c")))
}

func TestLane_DuplicateClientOrderID(t *testing.T) {
	lane := Unlimited()

	r := req("1", "same-id")
	require.NoError(t, lane.Check(r))
	lane.RecordOrder(r)

	err := lane.Check(r)
	var verr *order.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "clientOrderId", verr.Field)
}

func TestLane_Throttle(t *testing.T) {
	lane := NewLane(decimal.Zero, decimal.Zero, 500)
	now := time.Unix(1700000000, 0)
	lane.throttle.now = func() time.Time { return now }

	require.NoError(t, lane.Check(req("1", "")))
	lane.RecordOrder(req("1", ""))

	now = now.Add(100 * time.Millisecond)
	assert.Equal(t, 400*time.Millisecond, lane.throttle.Remaining())
	err := lane.Check(req("1", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "next order allowed in 400ms")

	now = now.Add(400 * time.Millisecond)
	assert.NoError(t, lane.Check(req("1", "")))
}

func TestThrottle_ZeroIntervalNeverWaits(t *testing.T) {
	th := NewThrottle(0)
	th.MarkSent()
	assert.Zero(t, th.Remaining())
}
