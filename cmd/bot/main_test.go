package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/futures-bot/internal/adapters/outbound/binance_http"
	"github.com/charleschow/futures-bot/internal/core/execution"
	"github.com/charleschow/futures-bot/internal/core/order"
	"github.com/charleschow/futures-bot/internal/journal"
)

func TestParseOrderArgs_Market(t *testing.T) {
	req, err := parseOrderArgs("market", []string{"--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "0.001"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", req.Symbol)
	assert.Equal(t, order.SideBuy, req.Side)
	assert.Equal(t, order.TypeMarket, req.Type)
	assert.True(t, req.Quantity.Equal(decimal.RequireFromString("0.001")))
	assert.Nil(t, req.Price)
	assert.Nil(t, req.StopPrice)
}

func TestParseOrderArgs(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		args     []string
		wantKind string // "" means success
		wantErr  bool
		check    func(t *testing.T, req order.Request)
	}{
		{
			name:    "lower-case input is normalized",
			command: "limit",
			args:    []string{"--symbol", "ethusdt", "--side", "sell", "--quantity", "0.5", "--price", "3500"},
			check: func(t *testing.T, req order.Request) {
				assert.Equal(t, "ETHUSDT", req.Symbol)
				assert.Equal(t, order.SideSell, req.Side)
				assert.Equal(t, order.GTC, req.TimeInForce)
				require.NotNil(t, req.Price)
				assert.Equal(t, "3500", req.Price.String())
			},
		},
		{
			name:    "limit with IOC",
			command: "limit",
			args:    []string{"--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1", "--price", "10", "--time-in-force", "ioc"},
			check: func(t *testing.T, req order.Request) {
				assert.Equal(t, order.IOC, req.TimeInForce)
			},
		},
		{
			name:    "stop-market carries stop price",
			command: "stop-market",
			args:    []string{"--symbol", "BTCUSDT", "--side", "SELL", "--quantity", "0.01", "--stop-price", "60000", "--reduce-only"},
			check: func(t *testing.T, req order.Request) {
				assert.Equal(t, order.TypeStopMarket, req.Type)
				require.NotNil(t, req.StopPrice)
				assert.Equal(t, "60000", req.StopPrice.String())
				assert.Nil(t, req.Price)
				assert.True(t, req.ReduceOnly)
			},
		},
		{
			name:     "limit without price",
			command:  "limit",
			args:     []string{"--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1"},
			wantKind: "validation",
		},
		{
			name:     "stop-market without stop price",
			command:  "stop-market",
			args:     []string{"--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1"},
			wantKind: "validation",
		},
		{
			name:     "zero quantity",
			command:  "market",
			args:     []string{"--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "0"},
			wantKind: "validation",
		},
		{
			name:     "bad side",
			command:  "market",
			args:     []string{"--symbol", "BTCUSDT", "--side", "HOLD", "--quantity", "1"},
			wantKind: "validation",
		},
		{
			name:     "missing symbol",
			command:  "market",
			args:     []string{"--side", "BUY", "--quantity", "1"},
			wantKind: "validation",
		},
		{
			name:    "price is not a market flag",
			command: "market",
			args:    []string{"--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1", "--price", "10"},
			wantErr: true,
		},
		{
			name:    "stray positional argument",
			command: "market",
			args:    []string{"--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1", "extra"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parseOrderArgs(tt.command, tt.args, io.Discard)
			switch {
			case tt.wantKind != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, order.Kind(err))
			case tt.wantErr:
				require.Error(t, err)
			default:
				require.NoError(t, err)
				tt.check(t, req)
			}
		})
	}
}

func TestParseTWAPArgs(t *testing.T) {
	plan, err := parseTWAPArgs([]string{"--symbol", "btcusdt", "--side", "BUY", "--quantity", "0.004"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", plan.Symbol)
	assert.Equal(t, execution.DefaultTWAPSlices, plan.Slices)
	assert.Equal(t, execution.DefaultTWAPInterval, plan.Interval)

	plan, err = parseTWAPArgs([]string{"--symbol", "BTCUSDT", "--side", "SELL", "--quantity", "1", "--slices", "3", "--interval", "0.5"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.Slices)
	assert.Equal(t, 500*time.Millisecond, plan.Interval)

	_, err = parseTWAPArgs([]string{"--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1", "--slices", "0"}, io.Discard)
	assert.Equal(t, "validation", order.Kind(err))

	_, err = parseTWAPArgs([]string{"--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1", "extra"}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected arguments")
}

func TestParseWatchArgs(t *testing.T) {
	w, err := parseWatchArgs([]string{"--symbol", "BTCUSDT", "--count", "3"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, watchFlags{symbol: "BTCUSDT", count: 3}, w)

	_, err = parseWatchArgs(nil, io.Discard)
	assert.Equal(t, "validation", order.Kind(err))

	_, err = parseWatchArgs([]string{"--symbol", "BTCUSDT", "extra"}, io.Discard)
	assert.Error(t, err)
}

func TestParseGlobal(t *testing.T) {
	g, rest, err := parseGlobal([]string{"--api-key", "k", "--verbose", "market", "--symbol", "X"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "k", g.apiKey)
	assert.True(t, g.verbose)
	assert.Equal(t, []string{"market", "--symbol", "X"}, rest)

	_, _, err = parseGlobal(nil, io.Discard)
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, execution.Result{
		Success: true,
		Order: &binance_http.OrderResponse{
			OrderID: 42, Symbol: "BTCUSDT", Side: "BUY", Type: "MARKET",
			Status: "FILLED", Price: "0", ExecutedQty: "0.001", AvgPrice: "65000.10",
		},
	})
	out := buf.String()
	assert.Contains(t, out, "OrderId: 42")
	assert.Contains(t, out, "Status : FILLED")
	assert.Contains(t, out, "ExecutedQty: 0.001")
	assert.Contains(t, out, "AvgFillPrice: 65000.10")
	assert.NotContains(t, out, "StopPrice")

	buf.Reset()
	printSummary(&buf, execution.Result{Raw: []byte(`{"odd":true}`)})
	assert.Contains(t, buf.String(), "Raw response")
	assert.Contains(t, buf.String(), `"odd": true`)
}

func TestPrintTWAPSummary(t *testing.T) {
	var buf bytes.Buffer
	printTWAPSummary(&buf, execution.TWAPReport{
		RunID: "run-1",
		Slices: []execution.SliceResult{
			{Index: 1, Quantity: decimal.RequireFromString("0.5"), Result: execution.Result{
				Success: true, Order: &binance_http.OrderResponse{OrderID: 7, Status: "FILLED"},
			}},
			{Index: 2, Quantity: decimal.RequireFromString("0.5"), Result: execution.Result{
				Err: errors.New("boom"),
			}},
		},
	})
	assert.Contains(t, buf.String(), "Slice 1: 0.5 -> orderId 7 (FILLED)")
	assert.Contains(t, buf.String(), "Slice 2: 0.5 -> error: boom")
}

// testEnv points config at a fake exchange and throwaway paths.
func testEnv(t *testing.T, handler http.HandlerFunc) *atomic.Int32 {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	t.Setenv("BINANCE_BASE_URL", server.URL)
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_API_SECRET", "")
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("ORDER_JOURNAL_PATH", filepath.Join(dir, "orders.db"))
	t.Setenv("ORDER_LIMITS_PATH", filepath.Join(dir, "none.yaml"))
	return &hits
}

func TestRun_MarketOrder(t *testing.T) {
	hits := testEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/order", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-MBX-APIKEY"))
		_, _ = w.Write([]byte(`{"orderId":99,"symbol":"BTCUSDT","status":"FILLED","side":"BUY","type":"MARKET","price":"0","avgPrice":"65000","executedQty":"0.001"}`))
	})

	var stdout bytes.Buffer
	code := run(context.Background(),
		[]string{"--api-key", "key", "--api-secret", "secret", "market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "0.001"},
		&stdout, io.Discard)

	assert.Equal(t, exitOK, code)
	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, stdout.String(), "OrderId: 99")
}

func TestRun_UndecodableAcceptIsSuccessWithRawBody(t *testing.T) {
	testEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`OK-not-json`))
	})

	var stdout bytes.Buffer
	code := run(context.Background(),
		[]string{"--api-key", "key", "--api-secret", "secret", "market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "0.001"},
		&stdout, io.Discard)

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout.String(), "Raw response")
	assert.Contains(t, stdout.String(), "OK-not-json")

	store, err := journal.OpenStore(os.Getenv("ORDER_JOURNAL_PATH"))
	require.NoError(t, err)
	defer store.Close()
	entries, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Success)
	assert.Equal(t, "OK-not-json", entries[0].Raw)
}

func TestRun_ExitCodes(t *testing.T) {
	creds := []string{"--api-key", "key", "--api-secret", "secret"}
	rejecting := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-2019,"msg":"Margin is insufficient."}`))
	}

	tests := []struct {
		name     string
		args     []string
		want     int
		wantHits int32
	}{
		{"no command", nil, exitUsage, 0},
		{"unknown command", append(creds, "cancel"), exitUsage, 0},
		{"invalid order", append(creds, "limit", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1"), exitUsage, 0},
		{"missing credentials", []string{"market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1"}, exitUsage, 0},
		{"exchange rejection", append(creds, "market", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1"), exitFailed, 1},
		{"twap with failed slices", append(creds, "twap", "--symbol", "BTCUSDT", "--side", "BUY", "--quantity", "1", "--slices", "2", "--interval", "0"), exitFailed, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := testEnv(t, rejecting)
			args := append([]string(nil), tt.args...)
			code := run(context.Background(), args, io.Discard, io.Discard)
			assert.Equal(t, tt.want, code)
			assert.Equal(t, tt.wantHits, hits.Load())
		})
	}
}

func TestRun_PingAndTime(t *testing.T) {
	testEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fapi/v1/ping":
			_, _ = w.Write([]byte(`{}`))
		case "/fapi/v1/time":
			_, _ = w.Write([]byte(`{"serverTime":1499827319559}`))
		default:
			http.NotFound(w, r)
		}
	})

	var stdout bytes.Buffer
	assert.Equal(t, exitOK, run(context.Background(), []string{"ping"}, &stdout, io.Discard))
	assert.Contains(t, stdout.String(), "pong")

	stdout.Reset()
	assert.Equal(t, exitOK, run(context.Background(), []string{"time"}, &stdout, io.Discard))
	assert.Contains(t, stdout.String(), "2017-07-12T02:41:59.559Z")
}
