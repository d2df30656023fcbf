package factors

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/fxsentry/profiles"
	"github.com/web3guy0/fxsentry/types"
)

var barStart = time.Date(2026, 1, 4, 19, 0, 0, 0, time.UTC) // last of 65 bars lands Monday 11:00 UTC

func bar(i int, o, h, l, c float64) types.Candle {
	return types.Candle{
		Time:  barStart.Add(time.Duration(i) * 15 * time.Minute),
		Open:  decimal.NewFromFloat(o),
		High:  decimal.NewFromFloat(h),
		Low:   decimal.NewFromFloat(l),
		Close: decimal.NewFromFloat(c),
	}
}

func flatBars(n int, price float64) []types.Candle {
	out := make([]types.Candle, n)
	for i := range out {
		out[i] = bar(i, price, price+0.05, price-0.05, price)
	}
	return out
}

// sweepReversalBars builds a bearish sniper sequence: a long flat range, a
// sweep above the range high that closes back inside, a drive down through
// the swing low, and a decisive bearish expansion bar at the end.
func sweepReversalBars() []types.Candle {
	bars := flatBars(60, 100.00)
	bars = append(bars,
		bar(60, 100.00, 100.60, 99.90, 99.96), // sweep above 100.05
		bar(61, 99.96, 99.98, 99.75, 99.80),   // breaks the swing low
		bar(62, 99.80, 99.82, 99.65, 99.70),
		bar(63, 99.70, 99.72, 99.50, 99.55),
		bar(64, 99.55, 99.57, 99.30, 99.35), // confirmation: big body, hard break
	)
	return bars
}

func newTestExtractor() *Extractor {
	return NewExtractor(profiles.Lookup("EURUSD"), profiles.DefaultSessions())
}

func TestExtractInsufficientHistory(t *testing.T) {
	ex := newTestExtractor()

	fs := ex.Extract(flatBars(30, 100), nil, time.Now())
	if fs.Bias != types.BiasNeutral || fs.PO3Bias != types.BiasNeutral {
		t.Errorf("expected neutral bias, got %s / %s", fs.Bias, fs.PO3Bias)
	}
	if fs.Phase != types.PhaseAccumulation {
		t.Errorf("expected ACCUMULATION, got %s", fs.Phase)
	}
	if fs.Entry.Valid || fs.Stop.Valid || fs.RR != 0 {
		t.Errorf("expected unavailable plan, got entry=%s stop=%s rr=%v", fs.Entry, fs.Stop, fs.RR)
	}
	if fs.BarCount != 30 {
		t.Errorf("expected bar count 30, got %d", fs.BarCount)
	}
}

func TestExtractFlatRange(t *testing.T) {
	ex := newTestExtractor()

	fs := ex.Extract(flatBars(70, 100), nil, time.Now())
	if fs.StructureOK {
		t.Error("flat range should not have valid structure")
	}
	if fs.LiquiditySweep {
		t.Error("flat range should not detect a sweep")
	}
	if fs.Phase != types.PhaseAccumulation {
		t.Errorf("expected ACCUMULATION, got %s", fs.Phase)
	}
	if fs.Bias != types.BiasNeutral {
		t.Errorf("expected neutral bias, got %s", fs.Bias)
	}
	if fs.RR != 0 {
		t.Errorf("neutral bias should carry rr 0, got %v", fs.RR)
	}
}

func TestExtractSweepReversal(t *testing.T) {
	ex := newTestExtractor()
	bars := sweepReversalBars()

	// HTF bars: open above current price (bearish reclaim), with the rolling
	// low placed exactly 2.5 risk-distances below entry so tp1 snaps to it.
	entry := bars[len(bars)-1].Close
	riskDist := ATR(bars, 14).Mul(decimal.NewFromFloat(1.2))
	htfLow := entry.Sub(riskDist.Mul(decimal.NewFromFloat(2.5)))
	htf := []types.Candle{
		{Time: barStart, Open: decimal.NewFromFloat(100.40), High: decimal.NewFromFloat(100.70), Low: htfLow, Close: decimal.NewFromFloat(100.30)},
		{Time: barStart.Add(4 * time.Hour), Open: decimal.NewFromFloat(100.20), High: decimal.NewFromFloat(100.50), Low: decimal.NewFromFloat(99.60), Close: decimal.NewFromFloat(99.80)},
	}

	fs := ex.Extract(bars, htf, time.Now())

	if !fs.LiquiditySweep || !fs.SweepAbove {
		t.Fatalf("expected sweep-above, got sweep=%v above=%v", fs.LiquiditySweep, fs.SweepAbove)
	}
	if fs.PO3Bias != types.BiasBearish {
		t.Fatalf("sweep above should imply bearish, got %s", fs.PO3Bias)
	}
	if !fs.MSSShift {
		t.Fatal("expected a market structure shift after the sweep")
	}
	if fs.Phase != types.PhaseManipulation {
		t.Errorf("recent sweep should keep phase MANIPULATION, got %s", fs.Phase)
	}
	if !fs.AccumulationSeen {
		t.Error("long flat range before the sweep should read as accumulation")
	}
	if !fs.AgreementReclaim {
		t.Error("close below the HTF open should count as bearish reclaim")
	}
	if !fs.EntrySniper {
		t.Error("final expansion bar should confirm the sniper entry")
	}
	if !fs.Entry.Valid || !fs.Stop.Valid || !fs.TP1.Valid {
		t.Fatalf("expected a full plan, got entry=%s stop=%s tp1=%s", fs.Entry, fs.Stop, fs.TP1)
	}
	if !fs.Stop.Dec.GreaterThan(fs.Entry.Dec) {
		t.Errorf("bearish stop must sit above entry: stop=%s entry=%s", fs.Stop, fs.Entry)
	}
	if !fs.TP1.Dec.Equal(htfLow) {
		t.Errorf("tp1 should snap to the HTF low %s, got %s", htfLow, fs.TP1)
	}
	if math.Abs(fs.RR-2.5) > 1e-9 {
		t.Errorf("expected rr 2.5, got %v", fs.RR)
	}
	if fs.Session != types.SessionLondon || !fs.SessionSniper {
		t.Errorf("expected sniper-valid london session, got %s", fs.Session)
	}
}

func TestExtractMaturedDistribution(t *testing.T) {
	ex := newTestExtractor()

	// Same reversal, but the sweep has aged out of the scan window: a steady
	// grind lower afterward. Phase should read DISTRIBUTION once the break
	// holds without a recent sweep.
	bars := sweepReversalBars()
	price := 99.35
	for i := 0; i < 24; i++ {
		price -= 0.06
		bars = append(bars, bar(65+i, price+0.06, price+0.08, price-0.02, price))
	}

	fs := ex.Extract(bars, nil, time.Now())
	if fs.LiquiditySweep {
		t.Fatal("sweep should have aged out of the scan window")
	}
	if fs.Bias != types.BiasBearish {
		t.Fatalf("steady grind lower should read bearish, got %s", fs.Bias)
	}
	if !fs.MSSShift {
		t.Fatal("expected MSS in the bias direction")
	}
	if fs.Phase != types.PhaseDistribution {
		t.Errorf("held break without a recent sweep should be DISTRIBUTION, got %s", fs.Phase)
	}
	if !fs.DistributionOK {
		t.Error("close holding beyond the break should mark continuation structure")
	}
}

func TestSessionAt(t *testing.T) {
	cases := []struct {
		hour int
		day  int // january 2026 day-of-month
		want types.Session
	}{
		{3, 5, types.SessionAsia},
		{9, 5, types.SessionLondon},
		{15, 5, types.SessionNewYork},
		{22, 5, types.SessionAfterHrs},
		{9, 3, types.SessionAfterHrs}, // saturday
	}
	for _, c := range cases {
		got := SessionAt(time.Date(2026, 1, c.day, c.hour, 0, 0, 0, time.UTC))
		if got != c.want {
			t.Errorf("day %d hour %d: expected %s, got %s", c.day, c.hour, c.want, got)
		}
	}
}
