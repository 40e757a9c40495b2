package process

import (
	"fmt"
	"io"

	"github.com/charleschow/futures-bot/internal/adapters/binance_auth"
	"github.com/charleschow/futures-bot/internal/adapters/inbound/binance_ws"
	"github.com/charleschow/futures-bot/internal/adapters/outbound/binance_http"
	"github.com/charleschow/futures-bot/internal/config"
	"github.com/charleschow/futures-bot/internal/core/execution"
	"github.com/charleschow/futures-bot/internal/events"
	"github.com/charleschow/futures-bot/internal/journal"
	"github.com/charleschow/futures-bot/internal/telemetry"
)

// Bot holds the shared infrastructure for one CLI invocation.
type Bot struct {
	Config  *config.Config
	Bus     *events.Bus
	Client  *binance_http.Client
	Service *execution.Service
	Stream  *binance_ws.Client

	closers []io.Closer
}

// Boot wires auth, the REST client, order limits, the execution service and
// the journal. Credentials are optional here; signed calls fail with a
// ValidationError when they are missing.
func Boot(cfg *config.Config) (*Bot, error) {
	bus := events.NewBus()

	signer := binance_auth.NewSigner(binance_auth.Credentials{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	})
	client := binance_http.NewClient(cfg.BaseURL, signer, cfg.RecvWindow)

	// ── Order limits ───────────────────────────────────────────
	limits, err := config.LoadOrderLimits(cfg.OrderLimitsPath)
	if err != nil {
		return nil, fmt.Errorf("order limits: %w", err)
	}
	router := execution.NewLaneRouter()
	execution.RegisterLanesFromConfig(router, limits)

	bot := &Bot{
		Config:  cfg,
		Bus:     bus,
		Client:  client,
		Service: execution.NewService(bus, router, client),
		Stream:  binance_ws.NewClient(cfg.WSURL, bus),
	}

	// ── Journal ────────────────────────────────────────────────
	if cfg.JournalPath != "" {
		store, err := journal.OpenStore(cfg.JournalPath)
		if err != nil {
			telemetry.Warnf("Order journal disabled: %v", err)
		} else {
			store.Subscribe(bus)
			bot.closers = append(bot.closers, store)
		}
	}

	return bot, nil
}

// RequireCredentials reports a usable error when no key pair is loaded.
func (b *Bot) RequireCredentials() error {
	if b.Config.APIKey == "" || b.Config.APISecret == "" {
		return fmt.Errorf("API key and secret are required. Provide via --api-key/--api-secret or BINANCE_API_KEY/BINANCE_API_SECRET env vars")
	}
	return nil
}

func (b *Bot) Close() {
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			telemetry.Warnf("close: %v", err)
		}
	}
	b.Stream.Close()

	if summary := telemetry.Metrics.Summary(); summary != "" {
		telemetry.Debugf("Session stats  %s", summary)
	}
}
