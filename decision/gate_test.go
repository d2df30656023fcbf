package decision

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/fxsentry/scoring"
	"github.com/web3guy0/fxsentry/types"
)

var now = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

func newTestGate() *Gate {
	return NewGate(2.0, 8.0, 6.5)
}

// sniperSet is a bearish reversal with every sniper precondition met and a
// 2.5 RR plan.
func sniperSet() types.FactorSet {
	fs := types.NewNeutralFactorSet("EURUSD")
	fs.BarCount = 120
	fs.PO3Bias = types.BiasBearish
	fs.Phase = types.PhaseManipulation
	fs.AccumulationSeen = true
	fs.LiquiditySweep = true
	fs.SweepAbove = true
	fs.AgreementReclaim = true
	fs.MSSShift = true
	fs.EntrySniper = true
	fs.SessionSniper = true
	fs.HTFAligned = true
	fs.Entry = types.LevelFrom(decimal.NewFromFloat(1.0850))
	fs.Stop = types.LevelFrom(decimal.NewFromFloat(1.0880))
	fs.TP1 = types.LevelFrom(decimal.NewFromFloat(1.0775))
	fs.TP2 = types.LevelFrom(decimal.NewFromFloat(1.0700))
	fs.RR = 2.5
	return fs
}

// continuationSet is a bullish distribution trend with the continuation
// preconditions met.
func continuationSet() types.FactorSet {
	fs := types.NewNeutralFactorSet("XAUUSD")
	fs.BarCount = 120
	fs.PO3Bias = types.BiasBullish
	fs.Phase = types.PhaseDistribution
	fs.MSSShift = true
	fs.DistributionOK = true
	fs.StructureOK = true
	fs.EntryContinuation = true
	fs.SessionContinuity = true
	fs.HTFAligned = true
	fs.AgreementReclaim = true
	fs.Entry = types.LevelFrom(decimal.NewFromFloat(2400))
	fs.Stop = types.LevelFrom(decimal.NewFromFloat(2388))
	fs.TP1 = types.LevelFrom(decimal.NewFromFloat(2430))
	fs.TP2 = types.LevelFrom(decimal.NewFromFloat(2460))
	fs.RR = 2.5
	return fs
}

func TestGateSniperFires(t *testing.T) {
	fs := sniperSet()
	conf := scoring.Confidence(fs)
	if conf < 8.0 {
		t.Fatalf("stacked sniper factors should score at least 8, got %v", conf)
	}

	d := newTestGate().Evaluate(fs, conf, now)
	if d.Action != types.ActionSellNow {
		t.Fatalf("expected SELL NOW, got %s (%s)", d.Action, d.Commentary)
	}
	if d.Mode != types.ModeSniper {
		t.Errorf("expected sniper mode, got %s", d.Mode)
	}
	if d.Plan == nil || d.Plan.RR != 2.5 {
		t.Errorf("expected plan with rr 2.5, got %+v", d.Plan)
	}
}

func TestGateContinuationFires(t *testing.T) {
	fs := continuationSet()
	d := newTestGate().Evaluate(fs, 7.0, now)
	if d.Action != types.ActionBuyNow {
		t.Fatalf("expected BUY NOW, got %s (%s)", d.Action, d.Commentary)
	}
	if d.Mode != types.ModeContinuation {
		t.Errorf("expected continuation mode, got %s", d.Mode)
	}
}

func TestGateRRFloor(t *testing.T) {
	// Perfect sniper preconditions except RR at 1.5: hard stop.
	fs := sniperSet()
	fs.RR = 1.5

	d := newTestGate().Evaluate(fs, 10, now)
	if d.Action != types.ActionWait {
		t.Fatalf("expected WAIT, got %s", d.Action)
	}
	if d.Mode != types.ModeStandby {
		t.Errorf("expected standby mode, got %s", d.Mode)
	}
	if !strings.Contains(d.Commentary, "RR") {
		t.Errorf("commentary should cite the RR floor, got %q", d.Commentary)
	}
}

func TestGateNeutralNeverFires(t *testing.T) {
	// Every flag stacked but no directional lean: the gate must not fire.
	fs := sniperSet()
	fs.PO3Bias = types.BiasNeutral

	d := newTestGate().Evaluate(fs, 10, now)
	if d.Action.Fires() {
		t.Fatalf("neutral bias fired %s", d.Action)
	}
}

func TestGateConfidenceAloneNeverFires(t *testing.T) {
	// Max confidence without the structural preconditions stays on watch.
	fs := types.NewNeutralFactorSet("EURUSD")
	fs.BarCount = 120
	fs.PO3Bias = types.BiasBullish
	fs.RR = 3.0

	d := newTestGate().Evaluate(fs, 10, now)
	if d.Action.Fires() {
		t.Fatalf("score alone fired %s", d.Action)
	}
}

func TestGateStandbyCommentary(t *testing.T) {
	gate := newTestGate()

	fs := types.NewNeutralFactorSet("EURUSD")
	fs.BarCount = 70
	d := gate.Evaluate(fs, 0, now)
	if d.Action != types.ActionWatch {
		t.Fatalf("flat market should WATCH, got %s", d.Action)
	}
	if !strings.Contains(d.Commentary, "sweep") {
		t.Errorf("expected sweep commentary, got %q", d.Commentary)
	}

	fs.LiquiditySweep = true
	d = gate.Evaluate(fs, 0, now)
	if !strings.Contains(d.Commentary, "MSS") {
		t.Errorf("expected MSS commentary, got %q", d.Commentary)
	}

	fs.MSSShift = true
	d = gate.Evaluate(fs, 0, now)
	if !strings.Contains(d.Commentary, "entry confirmation") {
		t.Errorf("expected entry-confirmation commentary, got %q", d.Commentary)
	}

	dist := types.NewNeutralFactorSet("EURUSD")
	dist.BarCount = 70
	dist.Phase = types.PhaseDistribution
	d = gate.Evaluate(dist, 0, now)
	if !strings.Contains(d.Commentary, "continuation") {
		t.Errorf("expected continuation commentary, got %q", d.Commentary)
	}
}

func TestGateNoData(t *testing.T) {
	fs := types.NewNeutralFactorSet("EURUSD")
	d := newTestGate().Evaluate(fs, 0, now)
	if d.Action != types.ActionDoNothing {
		t.Fatalf("empty history should DO NOTHING, got %s", d.Action)
	}
}

func TestGateCleanSniperBonusLocalOnly(t *testing.T) {
	// Confidence 7.2 clears the 8.0 floor only with the +1.0 bonus, and the
	// persisted decision must still carry 7.2.
	fs := sniperSet()
	d := newTestGate().Evaluate(fs, 7.2, now)
	if d.Action != types.ActionSellNow {
		t.Fatalf("bonus should lift 7.2 over the floor, got %s", d.Action)
	}
	if d.Confidence != 7.2 {
		t.Errorf("bonus leaked into persisted confidence: %v", d.Confidence)
	}

	d = newTestGate().Evaluate(fs, 6.9, now)
	if d.Action.Fires() {
		t.Errorf("6.9 plus bonus is under the floor, got %s", d.Action)
	}
}

func TestGateNewsIsAdvisoryOnly(t *testing.T) {
	fs := sniperSet()
	fs.NewsBlock = true

	d := newTestGate().Evaluate(fs, 10, now)
	if !d.Action.Fires() {
		t.Fatalf("news must not block a fire, got %s", d.Action)
	}
	if !strings.Contains(d.Commentary, "news") {
		t.Errorf("expected news advisory in commentary, got %q", d.Commentary)
	}
}
