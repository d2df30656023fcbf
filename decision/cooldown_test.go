package decision

import (
	"testing"
	"time"

	"github.com/web3guy0/fxsentry/scoring"
	"github.com/web3guy0/fxsentry/types"
)

func TestThrottleRepeatWithinWindow(t *testing.T) {
	gate := newTestGate()
	throttle := NewThrottle(60 * time.Minute)
	fs := sniperSet()
	conf := scoring.Confidence(fs)

	first := throttle.Apply(gate.Evaluate(fs, conf, now), now)
	if first.Action != types.ActionSellNow {
		t.Fatalf("first pass should fire, got %s", first.Action)
	}

	// Identical factors ten minutes later: cooldown, not a second fire.
	later := now.Add(10 * time.Minute)
	second := throttle.Apply(gate.Evaluate(fs, conf, later), later)
	if second.Action != types.ActionWait {
		t.Fatalf("expected WAIT inside cooldown, got %s", second.Action)
	}
	if second.Mode != types.ModeStandby {
		t.Errorf("expected standby mode, got %s", second.Mode)
	}
	if second.Plan == nil || second.Confidence != conf {
		t.Error("cooldown should preserve plan and confidence for observability")
	}
}

func TestThrottleWindowElapses(t *testing.T) {
	throttle := NewThrottle(60 * time.Minute)
	d := types.Decision{Symbol: "EURUSD", Action: types.ActionSellNow}

	throttle.Apply(d, now)
	after := throttle.Apply(d, now.Add(61*time.Minute))
	if after.Action != types.ActionSellNow {
		t.Fatalf("elapsed window should allow a refire, got %s", after.Action)
	}
}

func TestThrottleOppositeDirectionOverrides(t *testing.T) {
	throttle := NewThrottle(60 * time.Minute)

	throttle.Apply(types.Decision{Symbol: "EURUSD", Action: types.ActionSellNow}, now)

	// A reversal five minutes later is allowed straight through.
	buy := throttle.Apply(types.Decision{Symbol: "EURUSD", Action: types.ActionBuyNow}, now.Add(5*time.Minute))
	if buy.Action != types.ActionBuyNow {
		t.Fatalf("reversal should override cooldown, got %s", buy.Action)
	}

	// And the record now tracks the reversal.
	sell := throttle.Apply(types.Decision{Symbol: "EURUSD", Action: types.ActionSellNow}, now.Add(10*time.Minute))
	if sell.Action != types.ActionSellNow {
		t.Fatalf("direction flip should reset the record, got %s", sell.Action)
	}
}

func TestThrottleIgnoresNonFiring(t *testing.T) {
	throttle := NewThrottle(60 * time.Minute)

	d := throttle.Apply(types.Decision{Symbol: "EURUSD", Action: types.ActionWatch}, now)
	if d.Action != types.ActionWatch {
		t.Fatalf("watch should pass untouched, got %s", d.Action)
	}
	if _, _, ok := throttle.LastFired("EURUSD"); ok {
		t.Error("non-firing decision must not create a cooldown record")
	}
}

func TestThrottleSymbolsIndependent(t *testing.T) {
	throttle := NewThrottle(60 * time.Minute)

	throttle.Apply(types.Decision{Symbol: "EURUSD", Action: types.ActionBuyNow}, now)
	other := throttle.Apply(types.Decision{Symbol: "GBPUSD", Action: types.ActionBuyNow}, now.Add(time.Minute))
	if other.Action != types.ActionBuyNow {
		t.Fatalf("cooldown must be per-symbol, got %s", other.Action)
	}
}
