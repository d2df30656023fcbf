// FxSentry - PO3 decision assistant for FX, metals, and index CFDs
//
// Pulls OHLC candles for a curated symbol universe, derives market-structure
// factors (bias, liquidity sweeps, MSS, FVGs, Power-of-Three phase), scores
// them, and walks a gated state machine that emits BUY NOW / SELL NOW /
// WATCH / WAIT / DO NOTHING per symbol with an attached trade plan.
//
// Pipeline per refresh:
// 1. Fetch candles (broker bridge → aggregator API → on-chain reference)
// 2. Extract factor set, score confidence 0-10
// 3. Gate: RR floor, sniper / continuation setups, cooldown throttle
// 4. Size against paper equity, track the paper book
// 5. Alert via Telegram, persist the decision log
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/web3guy0/fxsentry/alerts"
	"github.com/web3guy0/fxsentry/config"
	"github.com/web3guy0/fxsentry/core"
	"github.com/web3guy0/fxsentry/feeds"
	"github.com/web3guy0/fxsentry/metrics"
	"github.com/web3guy0/fxsentry/news"
	"github.com/web3guy0/fxsentry/storage"
)

const version = "1.2.0"

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load environment
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().
		Str("version", version).
		Str("timeframe", cfg.Timeframe).
		Bool("dry_run", cfg.DryRun).
		Msg("🛰️ FxSentry starting")

	// Candle cascade: bridge first, aggregator as fallback.
	cascade := feeds.NewCascade(log.Logger,
		feeds.NewBridgeClient(cfg.BridgeURL),
		feeds.NewAggregatorClient(cfg.AggregatorURL, cfg.AggregatorKey),
	)

	// Persistence
	db, err := storage.New(cfg.DatabasePath, cfg.DecisionCap)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	// Telegram alerts, skipped entirely in dry-run mode.
	var alerter core.Alerter
	if !cfg.DryRun {
		sender, err := alerts.NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect Telegram")
		}
		alerter = alerts.NewDispatcher(sender, cfg.CooldownWindow, cfg.SniperFloor, cfg.ContinuationFloor, log.Logger)
		log.Info().Msg("✉️ Telegram alerts enabled")
	} else {
		log.Info().Msg("🧪 Dry run: alerts disabled")
	}

	calendar := news.NewCalendar("", cfg.CalendarAPIKey, log.Logger)

	engine := core.NewEngine(cfg, cascade, calendar, alerter, db, log.Logger)

	// On-chain reference feed, used as a spot sanity check when configured.
	if cfg.EthRPCURL != "" {
		if ref, err := feeds.NewChainlinkFeed(cfg.EthRPCURL); err != nil {
			log.Warn().Err(err).Msg("⚠️ Chainlink reference feed unavailable")
		} else {
			defer ref.Close()
			go watchReference(ref, engine, cfg)
		}
	}

	// Websocket spot stream for mark-to-market between refreshes.
	if cfg.StreamURL != "" {
		stream := feeds.NewSpotStream(cfg.StreamURL, cfg.Symbols, log.Logger)
		stream.OnUpdate(func(u feeds.PriceUpdate) {
			engine.HandlePrice(u.Symbol, u.Price, u.Time)
		})
		stream.Start()
		defer stream.Stop()
	}

	metrics.Serve(cfg.MetricsAddr, log.Logger)

	// Run until interrupted.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("Shutting down")
		cancel()
	}()

	engine.Start(ctx)
}

// watchReference polls the on-chain feed for symbols it supports and feeds
// the quotes into mark-to-market.
func watchReference(ref *feeds.ChainlinkFeed, engine *core.Engine, cfg *config.Config) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		for _, symbol := range cfg.Symbols {
			if !feeds.Supported(symbol) {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			price, updated, err := ref.SpotPrice(ctx, symbol)
			cancel()
			if err != nil {
				log.Debug().Err(err).Str("symbol", symbol).Msg("Reference feed read failed")
				continue
			}
			// Ignore rounds that have not updated in over an hour
			// (weekends, market holidays).
			if time.Since(updated) > time.Hour {
				continue
			}
			engine.HandlePrice(symbol, price, time.Now())
		}
	}
}
