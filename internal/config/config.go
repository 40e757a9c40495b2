package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Binance Futures Testnet
	BaseURL    string
	WSURL      string
	APIKey     string
	APISecret  string
	RecvWindow int

	// Order limits (optional YAML)
	OrderLimitsPath string

	// Journal (empty disables)
	JournalPath string

	// Telemetry
	LogLevel string
	LogDir   string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		BaseURL:    envStr("BINANCE_BASE_URL", "https://testnet.binancefuture.com"),
		WSURL:      envStr("BINANCE_WS_URL", "wss://stream.binancefuture.com"),
		APIKey:     envStr("BINANCE_API_KEY", ""),
		APISecret:  envStr("BINANCE_API_SECRET", ""),
		RecvWindow: envInt("BINANCE_RECV_WINDOW", 5000),

		OrderLimitsPath: envStr("ORDER_LIMITS_PATH", "internal/config/order_limits.yaml"),
		JournalPath:     envOptional("ORDER_JOURNAL_PATH", "data/orders.db"),

		LogLevel: envStr("LOG_LEVEL", "info"),
		LogDir:   envStr("LOG_DIR", "logs"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOptional is envStr where an explicitly empty value means "off".
func envOptional(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
