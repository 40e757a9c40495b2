// Measure round-trip latency to the Binance Futures Testnet.
//
// Times a cold /fapi/v1/ping, then n warm pings over a keep-alive client,
// and optionally websocket ping/pong frames on a mark price stream.
//
// Usage:
//
//	go run ./cmd/ping                 # default: 20 requests
//	go run ./cmd/ping -n 50           # 50 requests
//	go run ./cmd/ping --ws            # also measure websocket ping/pong
//	go run ./cmd/ping --symbol ETHUSDT --ws
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charleschow/futures-bot/internal/adapters/inbound/binance_ws"
	"github.com/charleschow/futures-bot/internal/adapters/outbound/binance_http"
	"github.com/charleschow/futures-bot/internal/config"
)

const wsTimeout = 5 * time.Second

func main() {
	n := flag.Int("n", 20, "number of requests")
	ws := flag.Bool("ws", false, "also measure websocket ping/pong latency")
	symbol := flag.String("symbol", "BTCUSDT", "symbol for the websocket stream")
	flag.Parse()

	if *n < 1 {
		fmt.Fprintln(os.Stderr, "-n must be >= 1")
		os.Exit(1)
	}

	cfg := config.Load()

	fmt.Printf("\n%s\n", strings.Repeat("=", 55))
	fmt.Printf("  BINANCE FUTURES TESTNET  %s\n", cfg.BaseURL)
	fmt.Printf("%s\n", strings.Repeat("=", 55))

	// REST pings are unsigned, so no credentials are needed.
	client := binance_http.NewClient(cfg.BaseURL, nil, cfg.RecvWindow)
	ctx := context.Background()

	fmt.Println("\n  Cold-start request (DNS + TLS + HTTP):")
	if ms, err := timePing(ctx, client); err != nil {
		fmt.Printf("    FAILED: %v\n", err)
		os.Exit(2)
	} else {
		fmt.Printf("    %.1f ms\n", ms)
	}

	fmt.Printf("\n  Warm HTTP latency (%d requests, keep-alive):\n", *n)
	latencies := make([]float64, 0, *n)
	pad := len(fmt.Sprintf("%d", *n))
	for i := 1; i <= *n; i++ {
		ms, err := timePing(ctx, client)
		if err != nil {
			fmt.Printf("  [%*d/%d]  FAILED: %v\n", pad, i, *n, err)
			continue
		}
		latencies = append(latencies, ms)
		fmt.Printf("  [%*d/%d]  %7.1f ms\n", pad, i, *n, ms)
	}
	printStats(latencies, "REST ping")

	if *ws {
		url := binance_ws.NewClient(cfg.WSURL, nil).StreamURL(*symbol)
		fmt.Printf("\n  WebSocket ping/pong latency (%d pings) %s:\n", *n, url)
		wsLatencies := measureWSLatency(url, *n)
		for i, ms := range wsLatencies {
			fmt.Printf("  [%*d/%d]  %7.1f ms  (WS ping/pong)\n", pad, i+1, *n, ms)
		}
		printStats(wsLatencies, "WebSocket")
	}
	fmt.Println()
}

func timePing(ctx context.Context, client *binance_http.Client) (float64, error) {
	start := time.Now()
	if err := client.Ping(ctx); err != nil {
		return 0, err
	}
	return float64(time.Since(start).Microseconds()) / 1000, nil
}

func measureWSLatency(url string, n int) []float64 {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		fmt.Printf("  [!] WebSocket dial failed: %v\n", err)
		return nil
	}
	defer conn.Close()

	pongCh := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case pongCh <- struct{}{}:
		default:
		}
		return nil
	})

	// Control frames are only processed while reading.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	latencies := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		start := time.Now()
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsTimeout)); err != nil {
			fmt.Printf("  [!] WS ping failed: %v\n", err)
			break
		}
		select {
		case <-pongCh:
			latencies = append(latencies, float64(time.Since(start).Microseconds())/1000)
		case <-time.After(wsTimeout):
			fmt.Printf("  [!] WS pong timeout\n")
			return latencies
		}
	}
	return latencies
}

type latencyStats struct {
	Min, Max, Mean, Median, Stdev, P95, P99 float64
}

// computeStats needs at least two samples for a sample stdev.
func computeStats(latencies []float64) (latencyStats, bool) {
	if len(latencies) < 2 {
		return latencyStats{}, false
	}
	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	var s latencyStats
	for _, v := range sorted {
		s.Mean += v
	}
	s.Mean /= float64(len(sorted))

	variance := 0.0
	for _, v := range sorted {
		variance += (v - s.Mean) * (v - s.Mean)
	}
	s.Stdev = math.Sqrt(variance / float64(len(sorted)-1))

	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Median = sorted[len(sorted)/2]
	s.P95 = sorted[min(int(float64(len(sorted))*0.95), len(sorted)-1)]
	s.P99 = sorted[min(int(float64(len(sorted))*0.99), len(sorted)-1)]
	return s, true
}

func printStats(latencies []float64, label string) {
	s, ok := computeStats(latencies)
	if !ok {
		fmt.Printf("\n  Not enough %s samples for statistics.\n", label)
		return
	}
	fmt.Printf("\n  --- %s Stats (%d requests) ---\n", label, len(latencies))
	fmt.Printf("  Min:    %7.1f ms\n", s.Min)
	fmt.Printf("  Max:    %7.1f ms\n", s.Max)
	fmt.Printf("  Mean:   %7.1f ms\n", s.Mean)
	fmt.Printf("  Median: %7.1f ms\n", s.Median)
	fmt.Printf("  Stdev:  %7.1f ms\n", s.Stdev)
	fmt.Printf("  p95:    %7.1f ms\n", s.P95)
	fmt.Printf("  p99:    %7.1f ms\n", s.P99)
}
