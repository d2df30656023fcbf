package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/fxsentry/config"
	"github.com/web3guy0/fxsentry/decision"
	"github.com/web3guy0/fxsentry/factors"
	"github.com/web3guy0/fxsentry/metrics"
	"github.com/web3guy0/fxsentry/portfolio"
	"github.com/web3guy0/fxsentry/profiles"
	"github.com/web3guy0/fxsentry/risk"
	"github.com/web3guy0/fxsentry/scoring"
	"github.com/web3guy0/fxsentry/storage"
	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ENGINE - One refresh cycle: fetch → extract → score → gate → size → act
// ═══════════════════════════════════════════════════════════════════════════════
//
// Symbols are independent: one symbol's outage degrades that symbol to a
// neutral factor set and the cycle moves on.
//

// CandleProvider supplies bars or nothing; it never errors.
type CandleProvider interface {
	Fetch(ctx context.Context, symbol, timeframe string, lookback int) []types.Candle
}

// NewsChecker flags imminent high-impact events.
type NewsChecker interface {
	Imminent(ctx context.Context, symbol string, now time.Time) bool
}

// Alerter delivers firing decisions.
type Alerter interface {
	Dispatch(d types.Decision, now time.Time) bool
}

// Store persists decisions, trades, and adaptive state.
type Store interface {
	SaveDecision(d types.Decision) error
	SaveTrade(t types.Trade) error
	FireStats(window int) (total, fires int64, err error)
	WinStats(window int) (wins, losses int64, err error)
	LoadThresholds() (storage.ThresholdState, error)
	SaveThresholds(st storage.ThresholdState) error
}

// Engine runs the per-symbol pipeline.
type Engine struct {
	cfg        *config.Config
	symbols    []string
	extractors map[string]*factors.Extractor

	candles  CandleProvider
	calendar NewsChecker
	alerter  Alerter
	store    Store

	gate      *decision.Gate
	throttle  *decision.Throttle
	sizer     *risk.Sizer
	portfolio *portfolio.Portfolio

	log zerolog.Logger
}

// NewEngine wires the pipeline. calendar, alerter, and store may be nil.
func NewEngine(cfg *config.Config, candles CandleProvider, calendar NewsChecker, alerter Alerter, store Store, log zerolog.Logger) *Engine {
	symbols := cfg.Symbols
	if len(symbols) == 0 {
		for _, p := range profiles.Defaults() {
			symbols = append(symbols, p.Symbol)
		}
	}

	sessions := profiles.DefaultSessions()
	extractors := make(map[string]*factors.Extractor, len(symbols))
	canon := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := profiles.Canonical(s)
		extractors[sym] = factors.NewExtractor(profiles.Lookup(sym), sessions)
		canon = append(canon, sym)
	}

	return &Engine{
		cfg:        cfg,
		symbols:    canon,
		extractors: extractors,
		candles:    candles,
		calendar:   calendar,
		alerter:    alerter,
		store:      store,
		gate:       decision.NewGate(cfg.RRMin, cfg.SniperFloor, cfg.ContinuationFloor),
		throttle:   decision.NewThrottle(cfg.CooldownWindow),
		sizer:      risk.NewSizer(cfg.Equity, cfg.MaxRiskPct),
		portfolio:  portfolio.New(cfg.Equity, log),
		log:        log,
	}
}

// Start runs refresh cycles until the context is cancelled.
func (e *Engine) Start(ctx context.Context) {
	e.log.Info().
		Strs("symbols", e.symbols).
		Dur("interval", e.cfg.RefreshInterval).
		Msg("🚀 Engine started")

	e.RefreshAll(ctx, time.Now())

	ticker := time.NewTicker(e.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			e.log.Info().Msg("Engine stopped")
			return
		case t := <-ticker.C:
			e.RefreshAll(ctx, t)
		}
	}
}

// RefreshAll runs one sequential pass over every symbol.
func (e *Engine) RefreshAll(ctx context.Context, now time.Time) {
	start := time.Now()
	for _, symbol := range e.symbols {
		if ctx.Err() != nil {
			return
		}
		e.RefreshSymbol(ctx, symbol, now)
	}
	e.adaptThresholds()

	metrics.RefreshCycles.Inc()
	metrics.CycleDuration.Observe(time.Since(start).Seconds())
	metrics.Equity.Set(e.portfolio.Equity().InexactFloat64())
	metrics.OpenPositions.Set(float64(e.portfolio.OpenCount()))
}

// RefreshSymbol runs the full pipeline for one symbol and returns the final
// decision. It never returns an error: every failure path degrades.
func (e *Engine) RefreshSymbol(ctx context.Context, symbol string, now time.Time) types.Decision {
	bars := e.candles.Fetch(ctx, symbol, e.cfg.Timeframe, e.cfg.Lookback)
	htf := e.candles.Fetch(ctx, symbol, e.cfg.HTFTimeframe, 120)

	extractor, ok := e.extractors[symbol]
	if !ok {
		extractor = factors.NewExtractor(profiles.Lookup(symbol), profiles.DefaultSessions())
		e.extractors[symbol] = extractor
	}

	fs := extractor.Extract(bars, htf, now)
	if fs.BarCount < factors.MinBars {
		metrics.FetchFailures.WithLabelValues(symbol).Inc()
	}
	if e.calendar != nil {
		fs.NewsBlock = e.calendar.Imminent(ctx, symbol, now)
	}

	conf := scoring.Confidence(fs)
	metrics.Confidence.WithLabelValues(symbol).Set(conf)

	d := e.gate.Evaluate(fs, conf, now)
	d = e.throttle.Apply(d, now)
	d = e.sizer.Size(d, fs)

	// Mark the standing position first so a stop-out settles before any
	// fresh open or reversal from this cycle.
	if fs.LastClose.Valid {
		e.settle(symbol, fs.LastClose.Dec, now)
	}
	e.portfolio.Apply(d, now)

	if e.store != nil {
		if err := e.store.SaveDecision(d); err != nil {
			e.log.Warn().Err(err).Str("symbol", symbol).Msg("⚠️ Decision persist failed")
		}
	}
	if e.alerter != nil && e.alerter.Dispatch(d, now) {
		metrics.AlertsSent.Inc()
	}

	metrics.Decisions.WithLabelValues(string(d.Action), string(d.Mode)).Inc()
	e.log.Info().
		Str("symbol", symbol).
		Str("action", string(d.Action)).
		Str("mode", string(d.Mode)).
		Float64("confidence", d.Confidence).
		Str("phase", string(fs.Phase)).
		Msg("🧭 " + d.Commentary)
	return d
}

// HandlePrice marks a symbol to market from a streamed quote between
// refreshes.
func (e *Engine) HandlePrice(symbol string, price decimal.Decimal, now time.Time) {
	e.settle(profiles.Canonical(symbol), price, now)
}

func (e *Engine) settle(symbol string, price decimal.Decimal, now time.Time) {
	trade, closed := e.portfolio.MarkToMarket(symbol, price, now)
	if !closed {
		return
	}
	e.sizer.SetEquity(e.portfolio.Equity())
	metrics.Equity.Set(e.portfolio.Equity().InexactFloat64())
	if e.store != nil {
		if err := e.store.SaveTrade(trade); err != nil {
			e.log.Warn().Err(err).Str("symbol", symbol).Msg("⚠️ Trade persist failed")
		}
	}
}

// adaptThresholds recomputes the advisory drift after each cycle and, when
// enabled, folds it into the gate floors.
func (e *Engine) adaptThresholds() {
	if e.store == nil {
		return
	}
	total, fires, err := e.store.FireStats(200)
	if err != nil {
		return
	}
	wins, losses, err := e.store.WinStats(50)
	if err != nil {
		return
	}
	st, err := e.store.LoadThresholds()
	if err != nil {
		return
	}

	next := storage.SuggestDrift(st.SniperDelta, total, fires, wins, losses)
	if next == st.SniperDelta {
		return
	}
	st.SniperDelta = next
	st.ContinuationDelta = next
	if err := e.store.SaveThresholds(st); err != nil {
		e.log.Warn().Err(err).Msg("⚠️ Threshold persist failed")
		return
	}

	e.log.Info().Float64("drift", next).Bool("applied", e.cfg.AdaptiveEnabled).Msg("🎚️ Adaptive threshold drift updated")
	if e.cfg.AdaptiveEnabled {
		e.gate = decision.NewGate(e.cfg.RRMin, e.cfg.SniperFloor+next, e.cfg.ContinuationFloor+next)
	}
}

// Portfolio exposes the paper book for reporting surfaces.
func (e *Engine) Portfolio() *portfolio.Portfolio {
	return e.portfolio
}
