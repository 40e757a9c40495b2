package binance_http

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/charleschow/futures-bot/internal/core/order"
	"github.com/charleschow/futures-bot/internal/telemetry"
)

const orderPath = "/fapi/v1/order"

// OrderResponse is the acknowledgement returned by POST /fapi/v1/order.
// Decimal fields stay as the exchange's strings.
type OrderResponse struct {
	OrderID       int64  `json:"orderId"`
	Symbol        string `json:"symbol"`
	Status        string `json:"status"`
	ClientOrderID string `json:"clientOrderId"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"timeInForce"`
	Price         string `json:"price"`
	AvgPrice      string `json:"avgPrice"`
	StopPrice     string `json:"stopPrice"`
	OrigQty       string `json:"origQty"`
	ExecutedQty   string `json:"executedQty"`
	CumQuote      string `json:"cumQuote"`
	ReduceOnly    bool   `json:"reduceOnly"`
	ClosePosition bool   `json:"closePosition"`
	UpdateTime    int64  `json:"updateTime"`

	Raw json.RawMessage `json:"-"`
}

// PlaceOrder validates req and submits it as a single signed request.
// Invalid input is rejected before anything touches the network.
func (c *Client) PlaceOrder(ctx context.Context, req order.Request) (*OrderResponse, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, _, err := c.Post(ctx, orderPath, OrderParams(req))
	if err != nil {
		return nil, err
	}

	// A 2xx means the exchange accepted the order. An undecodable body is
	// kept raw rather than reported as a failure that invites a resubmit.
	var resp OrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		telemetry.Warnf("binance_http: order accepted but response not decodable: %v", err)
		resp = OrderResponse{}
	}
	resp.Raw = body
	return &resp, nil
}

// Decoded reports whether the acknowledgement carried an order id.
func (r *OrderResponse) Decoded() bool {
	return r != nil && r.OrderID != 0
}

// OrderParams serializes req into the exchange's query parameters.
// timestamp is only included when req carries one; otherwise the client
// stamps it at send time.
func OrderParams(req order.Request) url.Values {
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", string(req.Side))
	params.Set("type", string(req.Type))
	if !req.ClosePosition {
		params.Set("quantity", req.Quantity.String())
	}

	if req.Price != nil {
		params.Set("price", req.Price.String())
	}
	if req.Type == order.TypeLimit {
		params.Set("timeInForce", string(req.TimeInForce))
	}
	if req.StopPrice != nil {
		params.Set("stopPrice", req.StopPrice.String())
	}
	if req.ReduceOnly {
		params.Set("reduceOnly", "true")
	}
	if req.ClosePosition {
		params.Set("closePosition", "true")
	}
	if req.ClientOrderID != "" {
		params.Set("newClientOrderId", req.ClientOrderID)
	}
	if req.Timestamp > 0 {
		params.Set("timestamp", strconv.FormatInt(req.Timestamp, 10))
	}
	return params
}
