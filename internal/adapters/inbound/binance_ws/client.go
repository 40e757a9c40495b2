package binance_ws

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charleschow/futures-bot/internal/events"
	"github.com/charleschow/futures-bot/internal/telemetry"
)

const (
	DefaultURL = "wss://stream.binancefuture.com"

	minBackoff = 1 * time.Second
	maxBackoff = 30 * time.Second
	// A connection must stay up this long before backoff resets, so a
	// server that accepts and immediately drops is not redialed every second.
	stableAfter = 10 * time.Second
)

// Client streams <symbol>@markPrice from the futures market stream and
// publishes each update on the bus as EventMarkPrice.
//
// Gorilla/websocket supports one concurrent reader and one concurrent
// writer; only the read loop touches the connection after dial, and Close
// is serialized through mu.
type Client struct {
	baseURL string
	bus     *events.Bus
	dialer  *websocket.Dialer

	minBackoff  time.Duration
	maxBackoff  time.Duration
	stableAfter time.Duration
	sleep       func(context.Context, time.Duration) error

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(baseURL string, bus *events.Bus) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		bus:         bus,
		dialer:      websocket.DefaultDialer,
		minBackoff:  minBackoff,
		maxBackoff:  maxBackoff,
		stableAfter: stableAfter,
		sleep:       sleepCtx,
	}
}

// StreamURL returns the raw-stream endpoint for symbol's mark price.
func (c *Client) StreamURL(symbol string) string {
	return fmt.Sprintf("%s/ws/%s@markPrice", c.baseURL, strings.ToLower(symbol))
}

// Stream connects and publishes updates until ctx ends, reconnecting with
// exponential backoff. The first dial failure is returned immediately.
// Backoff doubles on every reconnect and only resets once a connection has
// stayed up for stableAfter.
func (c *Client) Stream(ctx context.Context, symbol string) error {
	url := c.StreamURL(symbol)
	if err := c.dial(ctx, url); err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	telemetry.Infof("[Binance] WS connected to %s", url)

	backoff := c.minBackoff
	for {
		connectedAt := time.Now()
		c.readLoop(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(connectedAt) >= c.stableAfter {
			backoff = c.minBackoff
		}

		for attempt := 1; ; attempt++ {
			telemetry.Warnf("Binance WS reconnecting (attempt %d) in %s", attempt, backoff)
			if err := c.sleep(ctx, backoff); err != nil {
				return nil
			}
			backoff = min(backoff*2, c.maxBackoff)

			if err := c.dial(ctx, url); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				telemetry.Warnf("Binance WS dial failed: %v", err)
				continue
			}
			telemetry.Infof("Binance WS reconnected")
			break
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) dial(ctx context.Context, url string) error {
	conn, _, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

func (c *Client) readLoop(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	// Unblock ReadMessage when the context ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				telemetry.Warnf("Binance WS read: %v", err)
			}
			return
		}

		mp, ok, err := parseMarkPrice(data)
		if err != nil {
			telemetry.Debugf("Binance WS parse: %v", err)
			continue
		}
		if !ok {
			continue
		}

		c.bus.Publish(events.Event{
			Type:      events.EventMarkPrice,
			Symbol:    mp.Symbol,
			Timestamp: mp.EventTime,
			Payload:   mp,
		})
	}
}

// Close drops the current connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
