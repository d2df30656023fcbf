package factors

import (
	"github.com/shopspring/decimal"

	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// INDICATOR HELPERS - Small OHLC math shared by the extractor
// ═══════════════════════════════════════════════════════════════════════════════

// ATR computes the Average True Range over the trailing `period` bars.
// Returns zero when there is not enough history.
func ATR(bars []types.Candle, period int) decimal.Decimal {
	if len(bars) < period+1 {
		return decimal.Zero
	}

	window := bars[len(bars)-period-1:]
	sum := decimal.Zero
	for i := 1; i < len(window); i++ {
		// True Range = max(high-low, |high-prevClose|, |low-prevClose|)
		hl := window[i].High.Sub(window[i].Low)
		hpc := window[i].High.Sub(window[i-1].Close).Abs()
		lpc := window[i].Low.Sub(window[i-1].Close).Abs()

		tr := hl
		if hpc.GreaterThan(tr) {
			tr = hpc
		}
		if lpc.GreaterThan(tr) {
			tr = lpc
		}
		sum = sum.Add(tr)
	}

	return sum.Div(decimal.NewFromInt(int64(period)))
}

// HighestHigh returns the max high across bars.
func HighestHigh(bars []types.Candle) decimal.Decimal {
	if len(bars) == 0 {
		return decimal.Zero
	}
	h := bars[0].High
	for _, b := range bars[1:] {
		if b.High.GreaterThan(h) {
			h = b.High
		}
	}
	return h
}

// LowestLow returns the min low across bars.
func LowestLow(bars []types.Candle) decimal.Decimal {
	if len(bars) == 0 {
		return decimal.Zero
	}
	l := bars[0].Low
	for _, b := range bars[1:] {
		if b.Low.LessThan(l) {
			l = b.Low
		}
	}
	return l
}

// bodyFrac is the candle body as a fraction of its full range, 0 on doji bars
// with no range.
func bodyFrac(c types.Candle) float64 {
	rng := c.High.Sub(c.Low)
	if rng.IsZero() {
		return 0
	}
	return c.Close.Sub(c.Open).Abs().Div(rng).InexactFloat64()
}

// adverseWickFrac measures the wick against the candle's own direction as a
// fraction of range: upper wick for a down candle, lower wick for an up one.
func adverseWickFrac(c types.Candle) float64 {
	rng := c.High.Sub(c.Low)
	if rng.IsZero() {
		return 0
	}
	var wick decimal.Decimal
	if c.Close.GreaterThanOrEqual(c.Open) {
		wick = c.Open.Sub(c.Low)
	} else {
		wick = c.High.Sub(c.Open)
	}
	return wick.Div(rng).InexactFloat64()
}

// midpoint of a candle's range.
func midpoint(c types.Candle) decimal.Decimal {
	return c.High.Add(c.Low).Div(decimal.NewFromInt(2))
}
