package factors

import (
	"github.com/shopspring/decimal"

	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// FAIR VALUE GAPS - Three-bar imbalance detection and scoring
// ═══════════════════════════════════════════════════════════════════════════════
//
// Bull FVG: bar i-2 HIGH < bar i LOW   (gap up)
// Bear FVG: bar i-2 LOW  > bar i HIGH  (gap down)
//
// Each recent gap is scored by proximity, size, and recency, then multiplied
// by a "life" factor: 1.0 untouched, 0.5 touched, 0 fully traded through.
//

const (
	fvgLookback  = 60  // bars scanned for gaps and for recency decay
	fvgMaxRecent = 5   // only the most recent gaps are scored
	fvgPadFrac   = 0.0003 // ~3bps tolerance around the zone

	fvgLifeUntouched = 1.0
	fvgLifeTouched   = 0.5
)

// FVGSide marks gap direction.
type FVGSide string

const (
	FVGBull FVGSide = "bull"
	FVGBear FVGSide = "bear"
)

// FVG is one detected gap.
type FVG struct {
	Side   FVGSide
	Top    decimal.Decimal
	Bottom decimal.Decimal
	Index  int // index of bar i (gap completion) within the scanned slice
}

// FVGContext is what the extractor folds into the factor set.
type FVGContext struct {
	Score   float64 // max score across recent gaps, 0..~3
	Near    bool    // price inside the padded zone of a live recent gap
	AgeBars int     // age of the best-scoring gap
}

// DetectFVGs finds three-bar gaps in the trailing lookback window.
func DetectFVGs(bars []types.Candle) []FVG {
	if len(bars) < 5 {
		return nil
	}
	if len(bars) > fvgLookback {
		bars = bars[len(bars)-fvgLookback:]
	}

	var out []FVG
	for i := 2; i < len(bars); i++ {
		if bars[i-2].High.LessThan(bars[i].Low) {
			out = append(out, FVG{Side: FVGBull, Top: bars[i].Low, Bottom: bars[i-2].High, Index: i})
		}
		if bars[i-2].Low.GreaterThan(bars[i].High) {
			out = append(out, FVG{Side: FVGBear, Top: bars[i-2].Low, Bottom: bars[i].High, Index: i})
		}
	}
	return out
}

// ScoreFVGs evaluates the most recent gaps against the latest close.
func ScoreFVGs(bars []types.Candle) FVGContext {
	if len(bars) == 0 {
		return FVGContext{}
	}

	scanned := bars
	if len(scanned) > fvgLookback {
		scanned = scanned[len(scanned)-fvgLookback:]
	}

	gaps := DetectFVGs(scanned)
	if len(gaps) == 0 {
		return FVGContext{}
	}
	if len(gaps) > fvgMaxRecent {
		gaps = gaps[len(gaps)-fvgMaxRecent:]
	}

	price := scanned[len(scanned)-1].Close
	pad := price.Mul(decimal.NewFromFloat(fvgPadFrac))

	ctx := FVGContext{}
	for _, g := range gaps {
		life := gapLife(g, scanned)
		age := len(scanned) - 1 - g.Index

		score := scoreGap(g, price, pad, age) * life
		if score > ctx.Score {
			ctx.Score = score
			ctx.AgeBars = age
		}
		if life > 0 && inZone(price, g, pad) {
			ctx.Near = true
		}
	}
	return ctx
}

// scoreGap combines proximity, relative size, and recency into 0..3.
func scoreGap(g FVG, price, pad decimal.Decimal, age int) float64 {
	p := price.InexactFloat64()
	if p <= 0 {
		return 0
	}

	// Proximity: 1 inside the padded zone, linear falloff to 0 at 20bps away.
	prox := 1.0
	if !inZone(price, g, pad) {
		dist := distanceToZone(price, g)
		prox = 1.0 - dist.InexactFloat64()/(p*0.002)
		if prox < 0 {
			prox = 0
		}
	}

	// Size relative to price, saturating at 15bps.
	size := g.Top.Sub(g.Bottom).InexactFloat64() / (p * 0.0015)
	if size > 1 {
		size = 1
	}

	// Linear recency decay over the lookback window.
	recency := 1.0 - float64(age)/float64(fvgLookback)
	if recency < 0 {
		recency = 0
	}

	return 1.2*prox + 0.8*size + 1.0*recency
}

// gapLife returns 0 if price fully traded through the gap after it formed,
// 0.5 if it was merely touched, 1.0 if untouched.
func gapLife(g FVG, bars []types.Candle) float64 {
	touched := false
	for i := g.Index + 1; i < len(bars); i++ {
		b := bars[i]
		if g.Side == FVGBull {
			if b.Low.LessThanOrEqual(g.Bottom) {
				return 0
			}
			if b.Low.LessThanOrEqual(g.Top) {
				touched = true
			}
		} else {
			if b.High.GreaterThanOrEqual(g.Top) {
				return 0
			}
			if b.High.GreaterThanOrEqual(g.Bottom) {
				touched = true
			}
		}
	}
	if touched {
		return fvgLifeTouched
	}
	return fvgLifeUntouched
}

func inZone(price decimal.Decimal, g FVG, pad decimal.Decimal) bool {
	return price.GreaterThanOrEqual(g.Bottom.Sub(pad)) && price.LessThanOrEqual(g.Top.Add(pad))
}

func distanceToZone(price decimal.Decimal, g FVG) decimal.Decimal {
	if price.GreaterThan(g.Top) {
		return price.Sub(g.Top)
	}
	if price.LessThan(g.Bottom) {
		return g.Bottom.Sub(price)
	}
	return decimal.Zero
}
