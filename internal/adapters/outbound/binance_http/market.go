package binance_http

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	pingPath = "/fapi/v1/ping"
	timePath = "/fapi/v1/time"
)

// Ping checks REST connectivity. Unsigned.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.Get(ctx, pingPath, nil, false)
	return err
}

type serverTimeResponse struct {
	ServerTime int64 `json:"serverTime"`
}

// ServerTime returns the exchange clock. Useful for diagnosing
// -1021 "timestamp outside recvWindow" rejections.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	body, _, err := c.Get(ctx, timePath, nil, false)
	if err != nil {
		return time.Time{}, err
	}
	var resp serverTimeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return time.Time{}, fmt.Errorf("unmarshal server time: %w", err)
	}
	return time.UnixMilli(resp.ServerTime), nil
}
