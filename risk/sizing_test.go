package risk

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/fxsentry/types"
)

func firingDecision(mode types.Mode, conf float64) types.Decision {
	return types.Decision{
		Symbol:     "EURUSD",
		Action:     types.ActionBuyNow,
		Mode:       mode,
		Confidence: conf,
	}
}

func planSet(entry, stop float64) types.FactorSet {
	fs := types.NewNeutralFactorSet("EURUSD")
	fs.Entry = types.LevelFrom(decimal.NewFromFloat(entry))
	fs.Stop = types.LevelFrom(decimal.NewFromFloat(stop))
	return fs
}

func TestSizeSniperFullConfidence(t *testing.T) {
	s := NewSizer(decimal.NewFromInt(10000), 0.01)
	fs := planSet(1.1000, 1.0950) // 50 pip stop

	d := s.Size(firingDecision(types.ModeSniper, 9.0), fs)
	if d.RiskPct != 0.0075 {
		t.Errorf("expected 0.75%% risk, got %v", d.RiskPct)
	}
	// 10000 * 0.0075 = 75 risked over a 0.005 stop = 15000 units.
	want := decimal.NewFromInt(15000)
	if !d.Size.Equal(want) {
		t.Errorf("expected size %s, got %s", want, d.Size)
	}
	if d.Meta == nil || !d.Meta.StopDistance.Equal(decimal.NewFromFloat(0.005)) {
		t.Errorf("expected stop distance 0.005 in meta, got %+v", d.Meta)
	}
}

func TestSizeConfidenceScaling(t *testing.T) {
	s := NewSizer(decimal.NewFromInt(10000), 0.01)
	fs := planSet(1.1000, 1.0950)

	cases := []struct {
		conf float64
		want float64
	}{
		{4.9, 0},
		{5.0, 0.0075 * 0.6},
		{7.0, 0.0075 * 0.9},
		{7.8, 0.0075},
	}
	for _, c := range cases {
		d := s.Size(firingDecision(types.ModeSniper, c.conf), fs)
		if d.RiskPct != c.want {
			t.Errorf("conf %v: expected risk %v, got %v", c.conf, c.want, d.RiskPct)
		}
	}
}

func TestSizeVolatilityScaling(t *testing.T) {
	s := NewSizer(decimal.NewFromInt(10000), 0.01)
	fs := planSet(1.1000, 1.0950)

	fs.VolRisk = types.VolHigh
	d := s.Size(firingDecision(types.ModeContinuation, 9.0), fs)
	if d.RiskPct != 0.0050*0.6 {
		t.Errorf("high vol continuation: expected %v, got %v", 0.0050*0.6, d.RiskPct)
	}

	fs.VolRisk = types.VolExtreme
	d = s.Size(firingDecision(types.ModeContinuation, 9.0), fs)
	if d.RiskPct != 0.0050*0.25 {
		t.Errorf("extreme vol continuation: expected %v, got %v", 0.0050*0.25, d.RiskPct)
	}
}

func TestSizeNeverWithoutLevels(t *testing.T) {
	s := NewSizer(decimal.NewFromInt(10000), 0.01)

	fs := types.NewNeutralFactorSet("EURUSD")
	fs.Entry = types.LevelFrom(decimal.NewFromFloat(1.1))
	// stop unavailable
	d := s.Size(firingDecision(types.ModeSniper, 9.0), fs)
	if d.RiskPct != 0 || !d.Size.IsZero() {
		t.Errorf("missing stop must size zero, got %v / %s", d.RiskPct, d.Size)
	}

	// zero stop distance
	d = s.Size(firingDecision(types.ModeSniper, 9.0), planSet(1.1, 1.1))
	if d.RiskPct != 0 {
		t.Errorf("zero stop distance must size zero, got %v", d.RiskPct)
	}
}

func TestSizeStandbyNeverSized(t *testing.T) {
	s := NewSizer(decimal.NewFromInt(10000), 0.01)
	fs := planSet(1.1000, 1.0950)

	d := types.Decision{Symbol: "EURUSD", Action: types.ActionWait, Mode: types.ModeStandby, Confidence: 10}
	if got := s.Size(d, fs); got.RiskPct != 0 || got.Meta != nil {
		t.Errorf("standby must never size, got %v", got.RiskPct)
	}
}

func TestSizeRiskCapEnforced(t *testing.T) {
	// A cap above 1% is clamped back down at construction.
	s := NewSizer(decimal.NewFromInt(10000), 0.05)
	fs := planSet(1.1000, 1.0950)

	d := s.Size(firingDecision(types.ModeSniper, 9.0), fs)
	if d.RiskPct > 0.01 {
		t.Errorf("risk above the 1%% cap: %v", d.RiskPct)
	}
}
