// Command bot places orders on the Binance USDT-M Futures Testnet.
//
// Usage:
//
//	go run ./cmd/bot market --symbol BTCUSDT --side BUY --quantity 0.001
//	go run ./cmd/bot limit --symbol BTCUSDT --side SELL --quantity 0.001 --price 70000
//	go run ./cmd/bot stop-market --symbol BTCUSDT --side SELL --quantity 0.001 --stop-price 60000
//	go run ./cmd/bot twap --symbol BTCUSDT --side BUY --quantity 0.004 --slices 4 --interval 2
//	go run ./cmd/bot ping
//	go run ./cmd/bot watch --symbol BTCUSDT --count 5
//
// Credentials come from --api-key/--api-secret or BINANCE_API_KEY and
// BINANCE_API_SECRET (a .env file is loaded if present).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charleschow/futures-bot/internal/adapters/inbound/binance_ws"
	"github.com/charleschow/futures-bot/internal/config"
	"github.com/charleschow/futures-bot/internal/core/order"
	"github.com/charleschow/futures-bot/internal/events"
	"github.com/charleschow/futures-bot/internal/process"
	"github.com/charleschow/futures-bot/internal/telemetry"
)

const (
	exitOK     = 0
	exitUsage  = 1 // bad flags, bad config, missing credentials
	exitFailed = 2 // the exchange call or a TWAP slice failed
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	g, rest, err := parseGlobal(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg := config.Load()
	if g.apiKey != "" {
		cfg.APIKey = g.apiKey
	}
	if g.apiSecret != "" {
		cfg.APISecret = g.apiSecret
	}
	if g.baseURL != "" {
		cfg.BaseURL = g.baseURL
	}

	level := telemetry.ParseLogLevel(cfg.LogLevel)
	if g.verbose {
		level = slog.LevelDebug
	}
	logFile, logPath, err := telemetry.InitWithFile(level, cfg.LogDir, "bot")
	if err != nil {
		telemetry.Init(level)
		telemetry.Warnf("File logging disabled: %v", err)
	} else {
		defer logFile.Close()
		telemetry.Debugf("Logging to %s", logPath)
	}

	command, cmdArgs := rest[0], rest[1:]
	switch command {
	case "market", "limit", "stop-market", "stop":
		req, err := parseOrderArgs(command, cmdArgs, stderr)
		if err != nil {
			return usageError(err)
		}
		return withBot(cfg, true, func(bot *process.Bot) int {
			return runOrder(ctx, bot, req, stdout)
		})

	case "twap":
		plan, err := parseTWAPArgs(cmdArgs, stderr)
		if err != nil {
			return usageError(err)
		}
		return withBot(cfg, true, func(bot *process.Bot) int {
			report, err := bot.Service.RunTWAP(ctx, plan)
			if len(report.Slices) > 0 {
				printTWAPSummary(stdout, report)
			}
			if err != nil {
				telemetry.Errorf("TWAP stopped: %v", err)
				return exitFailed
			}
			if report.Failed() > 0 {
				return exitFailed
			}
			return exitOK
		})

	case "ping":
		if len(cmdArgs) > 0 {
			return usageError(fmt.Errorf("ping takes no arguments"))
		}
		return withBot(cfg, false, func(bot *process.Bot) int {
			start := time.Now()
			if err := bot.Client.Ping(ctx); err != nil {
				telemetry.Errorf("Ping failed (%s): %v", order.Kind(err), err)
				return exitFailed
			}
			fmt.Fprintf(stdout, "pong from %s in %s\n", bot.Client.BaseURL(), time.Since(start).Round(time.Millisecond))
			return exitOK
		})

	case "time":
		if len(cmdArgs) > 0 {
			return usageError(fmt.Errorf("time takes no arguments"))
		}
		return withBot(cfg, false, func(bot *process.Bot) int {
			server, err := bot.Client.ServerTime(ctx)
			if err != nil {
				telemetry.Errorf("Server time failed (%s): %v", order.Kind(err), err)
				return exitFailed
			}
			fmt.Fprintf(stdout, "server time: %s  (local offset %s)\n",
				server.UTC().Format(time.RFC3339Nano), time.Since(server).Round(time.Millisecond))
			return exitOK
		})

	case "watch":
		w, err := parseWatchArgs(cmdArgs, stderr)
		if err != nil {
			return usageError(err)
		}
		return withBot(cfg, false, func(bot *process.Bot) int {
			return runWatch(ctx, bot, w, stdout)
		})

	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		return exitUsage
	}
}

func usageError(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	telemetry.Errorf("%v", err)
	return exitUsage
}

// withBot boots shared infrastructure, runs fn and tears it down.
func withBot(cfg *config.Config, needCreds bool, fn func(*process.Bot) int) int {
	bot, err := process.Boot(cfg)
	if err != nil {
		telemetry.Errorf("Startup failed: %v", err)
		return exitUsage
	}
	defer bot.Close()

	if needCreds {
		if err := bot.RequireCredentials(); err != nil {
			telemetry.Errorf("%v", err)
			return exitUsage
		}
	}
	return fn(bot)
}

func runOrder(ctx context.Context, bot *process.Bot, req order.Request, stdout io.Writer) int {
	res := bot.Service.Submit(ctx, req)
	if res.Err != nil {
		telemetry.Errorf("Order failed (%s): %v", order.Kind(res.Err), res.Err)
		return exitFailed
	}
	printSummary(stdout, res)
	return exitOK
}

func runWatch(ctx context.Context, bot *process.Bot, w watchFlags, stdout io.Writer) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	seen := 0
	unsubscribe := bot.Bus.Subscribe(events.EventMarkPrice, func(e events.Event) error {
		mp, ok := e.Payload.(binance_ws.MarkPrice)
		if !ok {
			return nil
		}
		fmt.Fprintf(stdout, "%s  %s  mark=%s  index=%s  funding=%s\n",
			mp.EventTime.UTC().Format("15:04:05.000"), mp.Symbol, mp.Price, mp.IndexPrice, mp.FundingRate)
		seen++
		if w.count > 0 && seen >= w.count {
			cancel()
		}
		return nil
	})
	defer unsubscribe()

	if err := bot.Stream.Stream(ctx, w.symbol); err != nil {
		telemetry.Errorf("Mark price stream failed: %v", err)
		return exitFailed
	}
	return exitOK
}
