package factors

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/fxsentry/profiles"
	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// FEATURE EXTRACTOR - OHLC bars in, factor set out
// ═══════════════════════════════════════════════════════════════════════════════
//
// One extraction per symbol per refresh. The extractor never returns an error:
// anything it cannot derive degrades to the neutral factor set so a single
// bad feed can't take down the cycle.
//

const (
	// MinBars is the minimum history required for a non-neutral factor set.
	MinBars = 60

	biasWindow    = 24 // bars per bias comparison window
	sweepScan     = 8  // recent bars scanned for a sweep event
	sweepLookback = 20 // prior window defining the swept level
	swingLookback = 10 // prior window defining the MSS swing
	atrPeriod     = 14

	stopATRMult = 1.2 // stop distance in ATRs

	// Continuation structure needs the close to hold beyond the MSS break
	// by this many ATRs before distribution counts as matured.
	continuationHoldATR = 0.25
)

// Extractor derives factor sets for one instrument.
type Extractor struct {
	profile  profiles.Profile
	sessions profiles.SessionTable
}

// NewExtractor builds an extractor for the given instrument profile.
func NewExtractor(p profiles.Profile, sessions profiles.SessionTable) *Extractor {
	if sessions == nil {
		sessions = profiles.DefaultSessions()
	}
	return &Extractor{profile: p, sessions: sessions}
}

// Extract computes the full factor set from the primary series plus an
// optional higher-timeframe series. Insufficient history yields the neutral
// set; it never panics and never returns an error.
func (e *Extractor) Extract(bars, htf []types.Candle, now time.Time) types.FactorSet {
	fs := types.NewNeutralFactorSet(e.profile.Symbol)
	fs.BarCount = len(bars)

	fs.Session = SessionAt(barTime(bars, now))
	rule := e.sessions.Rule(fs.Session)
	fs.SessionSniper = rule.SniperValid
	fs.SessionContinuity = rule.ContinuationValid

	if len(bars) < MinBars {
		return fs
	}

	n := len(bars)
	last := bars[n-1]
	fs.LastClose = types.LevelFrom(last.Close)

	// ── Bias: window symmetry over two adjacent lookbacks ──
	fs.Bias = windowBias(bars)

	// ── Volatility regime ──
	atr := ATR(bars, atrPeriod)
	if last.Close.IsPositive() && atr.IsPositive() {
		atrFrac := atr.Div(last.Close).InexactFloat64()
		fs.VolRisk = e.profile.VolRegime(atrFrac)
	}

	// ── Liquidity sweep: stop-run beyond a rolling extreme ──
	sweepIdx := -1
	for j := n - 1; j >= n-sweepScan && j >= sweepLookback; j-- {
		prior := bars[j-sweepLookback : j]
		ph := HighestHigh(prior)
		pl := LowestLow(prior)
		b := bars[j]
		if b.High.GreaterThan(ph) && b.Close.LessThan(ph) {
			fs.LiquiditySweep = true
			fs.SweepAbove = true
			sweepIdx = j
			break
		}
		if b.Low.LessThan(pl) && b.Close.GreaterThan(pl) {
			fs.LiquiditySweep = true
			fs.SweepAbove = false
			sweepIdx = j
			break
		}
	}

	// Sweep overrides the raw bias: a run above resting stops implies the
	// real move is down, and vice versa.
	fs.PO3Bias = fs.Bias
	if fs.LiquiditySweep {
		if fs.SweepAbove {
			fs.PO3Bias = types.BiasBearish
		} else {
			fs.PO3Bias = types.BiasBullish
		}
	}

	// ── Market structure shift ──
	var breakLevel types.Level
	if fs.LiquiditySweep {
		for k := sweepIdx + 1; k < n; k++ {
			if k < swingLookback {
				continue
			}
			swing := bars[k-swingLookback : k]
			if fs.SweepAbove {
				sl := LowestLow(swing)
				if bars[k].Close.LessThan(sl) {
					fs.MSSShift = true
					breakLevel = types.LevelFrom(sl)
					break
				}
			} else {
				sh := HighestHigh(swing)
				if bars[k].Close.GreaterThan(sh) {
					fs.MSSShift = true
					breakLevel = types.LevelFrom(sh)
					break
				}
			}
		}
	} else if fs.Bias.Directional() {
		// Plain MSS in the bias direction, no sweep required.
		swing := bars[n-1-swingLookback : n-1]
		if fs.Bias == types.BiasBullish {
			sh := HighestHigh(swing)
			if last.Close.GreaterThan(sh) {
				fs.MSSShift = true
				breakLevel = types.LevelFrom(sh)
			}
		} else {
			sl := LowestLow(swing)
			if last.Close.LessThan(sl) {
				fs.MSSShift = true
				breakLevel = types.LevelFrom(sl)
			}
		}
	}

	// ── Continuation structure: the break has to hold ──
	if fs.MSSShift && breakLevel.Valid && atr.IsPositive() {
		hold := atr.Mul(decimal.NewFromFloat(continuationHoldATR))
		if fs.PO3Bias == types.BiasBearish {
			fs.DistributionOK = last.Close.LessThan(breakLevel.Dec.Sub(hold))
		} else if fs.PO3Bias == types.BiasBullish {
			fs.DistributionOK = last.Close.GreaterThan(breakLevel.Dec.Add(hold))
		}
	}

	// ── PO3 phase ──
	// A still-recent sweep keeps us in manipulation even once the MSS prints:
	// that window is the sniper's entry. Distribution is the matured trend,
	// once the sweep has aged out and the break is holding.
	switch {
	case fs.LiquiditySweep:
		fs.Phase = types.PhaseManipulation
	case fs.MSSShift && fs.DistributionOK:
		fs.Phase = types.PhaseDistribution
	default:
		fs.Phase = types.PhaseAccumulation
	}

	// ── Accumulation: contraction before the recent action ──
	fs.AccumulationSeen = accumulationSeen(bars)

	// ── Structure / liquidity thresholds ──
	recent := bars[n-biasWindow:]
	prior := bars[n-2*biasWindow : n-biasWindow]
	recentRange := HighestHigh(recent).Sub(LowestLow(recent))
	priorRange := HighestHigh(prior).Sub(LowestLow(prior))

	if recentRange.IsPositive() && atr.IsPositive() {
		drift := last.Close.Sub(recent[0].Open).Abs()
		fs.StructureOK = drift.GreaterThanOrEqual(recentRange.Mul(decimal.NewFromFloat(0.3))) &&
			recentRange.GreaterThanOrEqual(atr.Mul(decimal.NewFromFloat(1.5)))
	}
	if priorRange.IsPositive() {
		fs.LiquidityOK = recentRange.GreaterThanOrEqual(priorRange.Mul(decimal.NewFromFloat(1.2)))
	}

	// ── Higher-timeframe context ──
	if len(htf) > 0 {
		htfOpen := htf[len(htf)-1].Open
		switch fs.PO3Bias {
		case types.BiasBullish:
			fs.AgreementReclaim = last.Close.GreaterThan(htfOpen)
		case types.BiasBearish:
			fs.AgreementReclaim = last.Close.LessThan(htfOpen)
		}
	}
	htfBias := types.BiasNeutral
	if len(htf) >= 2*biasWindow {
		htfBias = windowBias(htf)
	}
	fs.HTFAligned = htfBias == types.BiasNeutral || htfBias == fs.PO3Bias

	// ── Entry confirmation ──
	fs.EntrySniper, fs.EntryContinuation, fs.ConfirmTag = entryConfirmation(bars, fs.PO3Bias)

	// ── Fair value gaps ──
	fvg := ScoreFVGs(bars)
	fs.FVGScore = fvg.Score
	fs.NearFVG = fvg.Near

	// ── Trade plan ──
	e.buildPlan(&fs, last.Close, atr, htf)

	return fs
}

// windowBias compares the most recent window against the prior one: bullish
// when both extremes stepped up and the window closed higher than it opened.
func windowBias(bars []types.Candle) types.Bias {
	if len(bars) < 2*biasWindow {
		return types.BiasNeutral
	}
	n := len(bars)
	recent := bars[n-biasWindow:]
	prior := bars[n-2*biasWindow : n-biasWindow]

	rh, rl := HighestHigh(recent), LowestLow(recent)
	ph, pl := HighestHigh(prior), LowestLow(prior)
	closedUp := recent[len(recent)-1].Close.GreaterThan(recent[0].Open)
	closedDown := recent[len(recent)-1].Close.LessThan(recent[0].Open)

	if rh.GreaterThan(ph) && rl.GreaterThan(pl) && closedUp {
		return types.BiasBullish
	}
	if rh.LessThan(ph) && rl.LessThan(pl) && closedDown {
		return types.BiasBearish
	}
	return types.BiasNeutral
}

// accumulationSeen checks for range contraction ahead of the recent action:
// the pre-spike segment compresses to a fraction of the full window's range.
func accumulationSeen(bars []types.Candle) bool {
	n := len(bars)
	if n < MinBars {
		return false
	}
	full := bars[n-MinBars:]
	seg := bars[n-40 : n-sweepScan]

	fullRange := HighestHigh(full).Sub(LowestLow(full))
	if !fullRange.IsPositive() {
		return false
	}
	segRange := HighestHigh(seg).Sub(LowestLow(seg))
	return segRange.LessThanOrEqual(fullRange.Mul(decimal.NewFromFloat(0.6)))
}

// entryConfirmation inspects the last two completed bars for an expansion
// candle in the implied direction. The sniper variant wants a dominant body
// and accepts a midpoint (soft) break; continuation insists on a hard break
// of the prior extreme but tolerates a smaller body.
func entryConfirmation(bars []types.Candle, dir types.Bias) (sniper, continuation bool, tag types.ConfirmType) {
	if len(bars) < 2 || !dir.Directional() {
		return false, false, types.ConfirmNone
	}
	cur := bars[len(bars)-1]
	prev := bars[len(bars)-2]

	var dirOK, hardBreak, softBreak bool
	if dir == types.BiasBullish {
		dirOK = cur.Close.GreaterThan(cur.Open)
		hardBreak = cur.High.GreaterThan(prev.High)
		softBreak = cur.Close.GreaterThan(midpoint(prev))
	} else {
		dirOK = cur.Close.LessThan(cur.Open)
		hardBreak = cur.Low.LessThan(prev.Low)
		softBreak = cur.Close.LessThan(midpoint(prev))
	}
	if !dirOK {
		return false, false, types.ConfirmNone
	}

	body := bodyFrac(cur)
	sniper = body >= 0.50 && (hardBreak || softBreak)
	continuation = body >= 0.35 && hardBreak

	if sniper || continuation {
		if adverseWickFrac(prev) >= 0.45 {
			tag = types.ConfirmReversalExp
		} else {
			tag = types.ConfirmContinuation
		}
	}
	return sniper, continuation, tag
}

// buildPlan fills entry/stop/targets and RR. Levels stay unavailable and RR
// stays 0 when the PO3 bias is neutral or the ATR is degenerate.
func (e *Extractor) buildPlan(fs *types.FactorSet, price, atr decimal.Decimal, htf []types.Candle) {
	if !fs.PO3Bias.Directional() || !atr.IsPositive() || !price.IsPositive() {
		return
	}

	riskDist := atr.Mul(decimal.NewFromFloat(stopATRMult))
	if !riskDist.IsPositive() {
		return
	}

	// Target multiple scales with liquidity confirmation.
	k := 2.0
	if fs.LiquidityOK {
		k += 1.0
	}
	if fs.LiquiditySweep {
		k += 0.5
	}
	if k > 4.0 {
		k = 4.0
	}

	entry := price
	var stop, target, far decimal.Decimal
	if fs.PO3Bias == types.BiasBullish {
		stop = entry.Sub(riskDist)
		target = entry.Add(riskDist.Mul(decimal.NewFromFloat(k)))
		far = entry.Add(riskDist.Mul(decimal.NewFromFloat(k + 2)))
	} else {
		stop = entry.Add(riskDist)
		target = entry.Sub(riskDist.Mul(decimal.NewFromFloat(k)))
		far = entry.Sub(riskDist.Mul(decimal.NewFromFloat(k + 2)))
	}

	tp1 := target
	tp2 := far

	// Snap targets to the nearest higher-timeframe liquidity extreme: don't
	// plan through resting liquidity.
	if len(htf) > 0 {
		tail := htf
		if len(tail) > 30 {
			tail = tail[len(tail)-30:]
		}
		if fs.PO3Bias == types.BiasBullish {
			ext := HighestHigh(tail)
			if ext.GreaterThan(entry) && ext.LessThan(target) {
				tp1 = ext
			}
			if ext.GreaterThan(tp1) && ext.LessThan(far) {
				tp2 = ext
			}
		} else {
			ext := LowestLow(tail)
			if ext.LessThan(entry) && ext.GreaterThan(target) {
				tp1 = ext
			}
			if ext.LessThan(tp1) && ext.GreaterThan(far) {
				tp2 = ext
			}
		}
	}

	fs.Entry = types.LevelFrom(entry)
	fs.Stop = types.LevelFrom(stop)
	fs.TP1 = types.LevelFrom(tp1)
	fs.TP2 = types.LevelFrom(tp2)
	fs.RR = tp1.Sub(entry).Abs().Div(riskDist).InexactFloat64()
}

func barTime(bars []types.Candle, now time.Time) time.Time {
	if len(bars) > 0 && !bars[len(bars)-1].Time.IsZero() {
		return bars[len(bars)-1].Time
	}
	return now
}
