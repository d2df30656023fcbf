package portfolio

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// PAPER PORTFOLIO - One position per symbol, equity tracked on closes
// ═══════════════════════════════════════════════════════════════════════════════

// Portfolio tracks paper positions opened from firing decisions. All state
// transitions happen under one lock: a close and its trade-record append are
// atomic.
type Portfolio struct {
	mu     sync.Mutex
	equity decimal.Decimal
	open   map[string]*types.Position
	closed []types.Trade
	log    zerolog.Logger
}

// New builds a portfolio with starting equity.
func New(equity decimal.Decimal, log zerolog.Logger) *Portfolio {
	return &Portfolio{
		equity: equity,
		open:   map[string]*types.Position{},
		log:    log,
	}
}

// Apply consumes a post-throttle decision. A fire with no open position
// opens one; an opposite-direction fire closes the standing position as a
// reversal and opens the new one. Everything else is a no-op.
func (p *Portfolio) Apply(d types.Decision, now time.Time) {
	if !d.Action.Fires() || d.Plan == nil || !d.Size.IsPositive() {
		return
	}

	side := "long"
	if d.Action == types.ActionSellNow {
		side = "short"
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if pos, ok := p.open[d.Symbol]; ok {
		if pos.Side == side {
			return // already positioned this way
		}
		p.closeLocked(pos, d.Plan.Entry.Dec, "reversal", now)
	}

	p.open[d.Symbol] = &types.Position{
		Symbol:   d.Symbol,
		Side:     side,
		Entry:    d.Plan.Entry.Dec,
		Size:     d.Size,
		Stop:     d.Plan.Stop,
		TP1:      d.Plan.TP1,
		TP2:      d.Plan.TP2,
		OpenedAt: now,
	}
	p.log.Info().
		Str("symbol", d.Symbol).
		Str("side", side).
		Str("entry", d.Plan.Entry.String()).
		Str("size", d.Size.String()).
		Msg("📈 Paper position opened")
}

// MarkToMarket refreshes the open position for a symbol against the latest
// price and closes it if a stop or target level was crossed. Returns the
// closed trade, if any.
func (p *Portfolio) MarkToMarket(symbol string, price decimal.Decimal, now time.Time) (types.Trade, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.open[symbol]
	if !ok {
		return types.Trade{}, false
	}

	pos.LastPrice = types.LevelFrom(price)
	pos.UnrealizedPnL = pnl(pos, price)

	level, reason := exitCrossed(pos, price)
	if reason == "" {
		return types.Trade{}, false
	}
	trade := p.closeLocked(pos, level, reason, now)
	return trade, true
}

// exitCrossed checks stop first, then the far target, then the near one.
// Exits fill at the level itself, not the observed price.
func exitCrossed(pos *types.Position, price decimal.Decimal) (decimal.Decimal, string) {
	if pos.Side == "long" {
		if pos.Stop.Valid && price.LessThanOrEqual(pos.Stop.Dec) {
			return pos.Stop.Dec, "stop"
		}
		if pos.TP2.Valid && price.GreaterThanOrEqual(pos.TP2.Dec) {
			return pos.TP2.Dec, "tp2"
		}
		if pos.TP1.Valid && price.GreaterThanOrEqual(pos.TP1.Dec) {
			return pos.TP1.Dec, "tp1"
		}
		return decimal.Zero, ""
	}
	if pos.Stop.Valid && price.GreaterThanOrEqual(pos.Stop.Dec) {
		return pos.Stop.Dec, "stop"
	}
	if pos.TP2.Valid && price.LessThanOrEqual(pos.TP2.Dec) {
		return pos.TP2.Dec, "tp2"
	}
	if pos.TP1.Valid && price.LessThanOrEqual(pos.TP1.Dec) {
		return pos.TP1.Dec, "tp1"
	}
	return decimal.Zero, ""
}

// closeLocked removes the position, appends the trade record, and updates
// equity in one step. Caller holds the lock.
func (p *Portfolio) closeLocked(pos *types.Position, exit decimal.Decimal, reason string, now time.Time) types.Trade {
	realized := pnl(pos, exit)
	trade := types.Trade{
		Symbol:   pos.Symbol,
		Side:     pos.Side,
		Entry:    pos.Entry,
		Exit:     exit,
		Size:     pos.Size,
		PnL:      realized,
		Reason:   reason,
		OpenedAt: pos.OpenedAt,
		ClosedAt: now,
	}
	delete(p.open, pos.Symbol)
	p.closed = append(p.closed, trade)
	p.equity = p.equity.Add(realized)

	p.log.Info().
		Str("symbol", pos.Symbol).
		Str("reason", reason).
		Str("pnl", realized.StringFixed(2)).
		Str("equity", p.equity.StringFixed(2)).
		Msg("💰 Paper position closed")
	return trade
}

func pnl(pos *types.Position, price decimal.Decimal) decimal.Decimal {
	if pos.Side == "long" {
		return price.Sub(pos.Entry).Mul(pos.Size)
	}
	return pos.Entry.Sub(price).Mul(pos.Size)
}

// Equity returns current equity including only realized PnL.
func (p *Portfolio) Equity() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.equity
}

// Open returns a snapshot of the open position for a symbol.
func (p *Portfolio) Open(symbol string) (types.Position, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pos, ok := p.open[symbol]; ok {
		return *pos, true
	}
	return types.Position{}, false
}

// OpenCount reports how many positions are standing.
func (p *Portfolio) OpenCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.open)
}

// Trades returns a copy of the closed-trade history.
func (p *Portfolio) Trades() []types.Trade {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.Trade, len(p.closed))
	copy(out, p.closed)
	return out
}

// Reset clears all positions and history and restores equity. Explicit
// operator action, never called implicitly.
func (p *Portfolio) Reset(equity decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.equity = equity
	p.open = map[string]*types.Position{}
	p.closed = nil
}
