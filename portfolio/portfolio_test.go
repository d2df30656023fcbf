package portfolio

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/fxsentry/types"
)

var now = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func buyDecision(symbol string) types.Decision {
	return types.Decision{
		Symbol: symbol,
		Action: types.ActionBuyNow,
		Mode:   types.ModeSniper,
		Size:   dec(10000),
		Plan: &types.TradePlan{
			Entry: types.LevelFrom(dec(1.1000)),
			Stop:  types.LevelFrom(dec(1.0950)),
			TP1:   types.LevelFrom(dec(1.1100)),
			TP2:   types.LevelFrom(dec(1.1200)),
		},
	}
}

func sellDecision(symbol string) types.Decision {
	d := buyDecision(symbol)
	d.Action = types.ActionSellNow
	d.Plan = &types.TradePlan{
		Entry: types.LevelFrom(dec(1.1050)),
		Stop:  types.LevelFrom(dec(1.1100)),
		TP1:   types.LevelFrom(dec(1.0950)),
		TP2:   types.LevelFrom(dec(1.0850)),
	}
	return d
}

func newTestPortfolio() *Portfolio {
	return New(decimal.NewFromInt(10000), zerolog.Nop())
}

func TestOpenOnFire(t *testing.T) {
	p := newTestPortfolio()
	p.Apply(buyDecision("EURUSD"), now)

	pos, ok := p.Open("EURUSD")
	if !ok {
		t.Fatal("expected an open position")
	}
	if pos.Side != "long" || !pos.Entry.Equal(dec(1.1000)) {
		t.Errorf("unexpected position %+v", pos)
	}

	// A second same-direction fire must not stack.
	p.Apply(buyDecision("EURUSD"), now.Add(time.Hour))
	if p.OpenCount() != 1 {
		t.Errorf("expected one position, got %d", p.OpenCount())
	}
}

func TestIgnoresNonFiringAndUnsized(t *testing.T) {
	p := newTestPortfolio()

	watch := buyDecision("EURUSD")
	watch.Action = types.ActionWatch
	p.Apply(watch, now)

	unsized := buyDecision("GBPUSD")
	unsized.Size = decimal.Zero
	p.Apply(unsized, now)

	if p.OpenCount() != 0 {
		t.Errorf("expected no positions, got %d", p.OpenCount())
	}
}

func TestStopOutReducesEquity(t *testing.T) {
	p := newTestPortfolio()
	p.Apply(buyDecision("EURUSD"), now)

	trade, closed := p.MarkToMarket("EURUSD", dec(1.0940), now.Add(time.Hour))
	if !closed {
		t.Fatal("expected a stop-out")
	}
	if trade.Reason != "stop" {
		t.Errorf("expected stop reason, got %s", trade.Reason)
	}
	// Fill at the stop level: (1.0950-1.1000)*10000 = -50.
	if !trade.PnL.Equal(dec(-50)) {
		t.Errorf("expected -50 pnl, got %s", trade.PnL)
	}
	if !p.Equity().Equal(dec(9950)) {
		t.Errorf("expected equity 9950, got %s", p.Equity())
	}
	if p.OpenCount() != 0 {
		t.Error("stopped position should be removed from the open set")
	}
}

func TestTargetPriority(t *testing.T) {
	p := newTestPortfolio()
	p.Apply(buyDecision("EURUSD"), now)

	// Price beyond tp2 closes at tp2, not tp1.
	trade, closed := p.MarkToMarket("EURUSD", dec(1.1250), now.Add(time.Hour))
	if !closed || trade.Reason != "tp2" {
		t.Fatalf("expected tp2 close, got %+v (closed=%v)", trade, closed)
	}
	// (1.1200-1.1000)*10000 = +200
	if !trade.PnL.Equal(dec(200)) {
		t.Errorf("expected +200 pnl, got %s", trade.PnL)
	}
}

func TestMarkToMarketUpdatesUnrealized(t *testing.T) {
	p := newTestPortfolio()
	p.Apply(buyDecision("EURUSD"), now)

	if _, closed := p.MarkToMarket("EURUSD", dec(1.1050), now.Add(time.Minute)); closed {
		t.Fatal("mid-range price should not close")
	}
	pos, _ := p.Open("EURUSD")
	if !pos.UnrealizedPnL.Equal(dec(50)) {
		t.Errorf("expected +50 unrealized, got %s", pos.UnrealizedPnL)
	}
}

func TestReversalClosesAndFlips(t *testing.T) {
	p := newTestPortfolio()
	p.Apply(buyDecision("EURUSD"), now)

	p.Apply(sellDecision("EURUSD"), now.Add(30*time.Minute))

	pos, ok := p.Open("EURUSD")
	if !ok || pos.Side != "short" {
		t.Fatalf("expected a short after reversal, got %+v (ok=%v)", pos, ok)
	}

	trades := p.Trades()
	if len(trades) != 1 || trades[0].Reason != "reversal" {
		t.Fatalf("expected one reversal trade, got %+v", trades)
	}
	// Long closed at the reversal's entry: (1.1050-1.1000)*10000 = +50.
	if !trades[0].PnL.Equal(dec(50)) {
		t.Errorf("expected +50 pnl, got %s", trades[0].PnL)
	}
	if !p.Equity().Equal(dec(10050)) {
		t.Errorf("expected equity 10050, got %s", p.Equity())
	}
}

func TestShortSideExits(t *testing.T) {
	p := newTestPortfolio()
	p.Apply(sellDecision("EURUSD"), now)

	trade, closed := p.MarkToMarket("EURUSD", dec(1.0940), now.Add(time.Hour))
	if !closed || trade.Reason != "tp1" {
		t.Fatalf("expected tp1 close, got %+v (closed=%v)", trade, closed)
	}
	// (1.1050-1.0950)*10000 = +100
	if !trade.PnL.Equal(dec(100)) {
		t.Errorf("expected +100 pnl, got %s", trade.PnL)
	}
}

func TestReset(t *testing.T) {
	p := newTestPortfolio()
	p.Apply(buyDecision("EURUSD"), now)
	p.MarkToMarket("EURUSD", dec(1.0940), now.Add(time.Hour))

	p.Reset(decimal.NewFromInt(25000))
	if p.OpenCount() != 0 || len(p.Trades()) != 0 {
		t.Error("reset should clear positions and history")
	}
	if !p.Equity().Equal(dec(25000)) {
		t.Errorf("expected equity 25000, got %s", p.Equity())
	}
}
