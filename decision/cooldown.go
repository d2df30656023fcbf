package decision

import (
	"fmt"
	"sync"
	"time"

	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// EXECUTION THROTTLE - One fire per direction per window
// ═══════════════════════════════════════════════════════════════════════════════
//
// A repeated same-direction fire inside the window downgrades to WAIT. An
// opposite-direction fire is a reversal and passes straight through,
// replacing the record.
//

type fireRecord struct {
	action  types.Action
	firedAt time.Time
}

// Throttle is the per-symbol cooldown state shared across refresh cycles.
type Throttle struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]fireRecord
}

// NewThrottle builds a throttle with the given cooldown window.
func NewThrottle(window time.Duration) *Throttle {
	return &Throttle{
		window: window,
		last:   map[string]fireRecord{},
	}
}

// Apply enforces the cooldown on a proposed decision. Non-firing decisions
// pass through untouched. The read and the record update happen under one
// lock so two cycles can never both claim the same window.
func (t *Throttle) Apply(d types.Decision, now time.Time) types.Decision {
	if !d.Action.Fires() {
		return d
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.last[d.Symbol]
	if ok && rec.action == d.Action && now.Sub(rec.firedAt) < t.window {
		remaining := t.window - now.Sub(rec.firedAt)
		// Keep plan, confidence, and meta for observability; only the
		// action is neutered.
		d.Action = types.ActionWait
		d.Mode = types.ModeStandby
		d.Commentary = fmt.Sprintf("Cooldown active for %s (%s remaining); signal unchanged.", d.Symbol, remaining.Round(time.Minute))
		return d
	}

	t.last[d.Symbol] = fireRecord{action: d.Action, firedAt: now}
	return d
}

// LastFired reports the most recent pass-through for a symbol, if any.
func (t *Throttle) LastFired(symbol string) (types.Action, time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.last[symbol]
	return rec.action, rec.firedAt, ok
}

// Reset clears all cooldown state.
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = map[string]fireRecord{}
}
