package feeds

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// CANDLE SOURCES - Provider cascade with stale-bar guard
// ═══════════════════════════════════════════════════════════════════════════════
//
// The engine only ever sees "bars or nothing". Providers are tried in order;
// the first healthy response wins. A response whose latest bar is too old
// counts as a failure, never as data.
//

// CandleSource supplies chronological OHLC bars for one symbol.
type CandleSource interface {
	Name() string
	FetchOHLC(ctx context.Context, symbol, timeframe string, lookback int) ([]types.Candle, error)
}

// Cascade tries sources in priority order.
type Cascade struct {
	sources []CandleSource
	log     zerolog.Logger
}

// NewCascade builds a cascade over the given sources.
func NewCascade(log zerolog.Logger, sources ...CandleSource) *Cascade {
	return &Cascade{sources: sources, log: log}
}

// Fetch returns bars from the first source that delivers fresh data, or nil
// when every provider fails. It never returns an error: unavailable is a
// first-class value upstream.
func (c *Cascade) Fetch(ctx context.Context, symbol, timeframe string, lookback int) []types.Candle {
	for _, src := range c.sources {
		bars, err := src.FetchOHLC(ctx, symbol, timeframe, lookback)
		if err != nil {
			c.log.Warn().Err(err).
				Str("source", src.Name()).
				Str("symbol", symbol).
				Msg("⚠️ Candle fetch failed")
			continue
		}
		if len(bars) == 0 {
			continue
		}
		if lag, stale := staleBars(bars, timeframe, time.Now()); stale {
			c.log.Warn().
				Str("source", src.Name()).
				Str("symbol", symbol).
				Dur("lag", lag).
				Msg("⚠️ Stale bars discarded")
			continue
		}
		return bars
	}
	return nil
}

// staleBars rejects a series whose last bar lags more than
// max(10min, 3×timeframe) behind now.
func staleBars(bars []types.Candle, timeframe string, now time.Time) (time.Duration, bool) {
	last := bars[len(bars)-1].Time
	if last.IsZero() {
		return 0, false // provider sent no timestamps, let it through
	}
	limit := 3 * TimeframeDuration(timeframe)
	if limit < 10*time.Minute {
		limit = 10 * time.Minute
	}
	lag := now.Sub(last)
	return lag, lag > limit
}

// TimeframeDuration parses compact timeframe labels (15m, 1h, 4h, 1d).
// Unknown labels default to 15 minutes.
func TimeframeDuration(tf string) time.Duration {
	tf = strings.ToLower(strings.TrimSpace(tf))
	if tf == "" {
		return 15 * time.Minute
	}
	unit := tf[len(tf)-1]
	n, err := strconv.Atoi(tf[:len(tf)-1])
	if err != nil || n <= 0 {
		return 15 * time.Minute
	}
	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute
	case 'h':
		return time.Duration(n) * time.Hour
	case 'd':
		return time.Duration(n) * 24 * time.Hour
	}
	return 15 * time.Minute
}
