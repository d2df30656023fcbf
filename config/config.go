package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration for the assistant
type Config struct {
	// Telegram
	TelegramToken  string
	TelegramChatID int64

	// Symbols
	Symbols []string

	// Mode
	DryRun bool
	Debug  bool

	// Candle sources
	BridgeURL     string // broker bridge /candles endpoint
	AggregatorURL string // REST kline fallback
	AggregatorKey string
	EthRPCURL     string // Chainlink reference feed
	StreamURL     string // websocket spot stream for mark-to-market

	// Refresh cycle
	RefreshInterval time.Duration
	Timeframe       string
	HTFTimeframe    string
	Lookback        int

	// Gate thresholds
	RRMin             float64
	SniperFloor       float64
	ContinuationFloor float64
	CooldownWindow    time.Duration

	// Risk
	Equity     decimal.Decimal
	MaxRiskPct float64

	// News calendar
	CalendarAPIKey string

	// Persistence
	DatabasePath string
	DecisionCap  int

	// Observability
	MetricsAddr string

	// Adaptive thresholds (advisory)
	AdaptiveEnabled bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		Symbols: splitList(getEnv("SYMBOLS", "")),

		DryRun: getEnvBool("DRY_RUN", true),
		Debug:  getEnvBool("DEBUG", false),

		BridgeURL:     getEnv("BRIDGE_CANDLES_URL", "http://127.0.0.1:8787/candles"),
		AggregatorURL: getEnv("AGGREGATOR_URL", "https://api.twelvedata.com/time_series"),
		AggregatorKey: os.Getenv("AGGREGATOR_API_KEY"),
		EthRPCURL:     getEnv("ETH_RPC_URL", "https://ethereum-rpc.publicnode.com"),
		StreamURL:     os.Getenv("SPOT_STREAM_URL"),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),
		Timeframe:       getEnv("TIMEFRAME", "15m"),
		HTFTimeframe:    getEnv("HTF_TIMEFRAME", "4h"),
		Lookback:        getEnvInt("LOOKBACK_BARS", 300),

		RRMin:             getEnvFloat("RR_MIN", 2.0),
		SniperFloor:       getEnvFloat("SNIPER_FLOOR", 8.0),
		ContinuationFloor: getEnvFloat("CONTINUATION_FLOOR", 6.5),
		CooldownWindow:    getEnvDuration("COOLDOWN_WINDOW", 60*time.Minute),

		Equity:     getEnvDecimal("PAPER_EQUITY", decimal.NewFromInt(10000)),
		MaxRiskPct: getEnvFloat("MAX_RISK_PCT", 0.01),

		CalendarAPIKey: os.Getenv("CALENDAR_API_KEY"),

		DatabasePath: getEnv("DATABASE_PATH", "data/fxsentry.db"),
		DecisionCap:  getEnvInt("DECISION_LOG_CAP", 500),

		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		AdaptiveEnabled: getEnvBool("ADAPTIVE_THRESHOLDS", false),
	}

	// Parse chat ID
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if cfg.RRMin < 2.0 {
		// RR floor is a hard invariant of the gate; config can raise it, not lower it
		cfg.RRMin = 2.0
	}

	return cfg, nil
}

// Helper functions

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
