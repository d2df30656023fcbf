package risk

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// POSITION SIZING - Mode base rate × confidence × volatility, capped at 1%
// ═══════════════════════════════════════════════════════════════════════════════

const (
	baseRiskSniper       = 0.0075
	baseRiskContinuation = 0.0050

	// hard ceiling on risk per trade as a fraction of equity
	maxRiskCap = 0.01
)

// Sizer converts firing decisions into position sizes against tracked equity.
type Sizer struct {
	mu         sync.RWMutex
	equity     decimal.Decimal
	maxRiskPct float64
}

// NewSizer builds a sizer. The cap can be configured lower than 1% but
// never higher.
func NewSizer(equity decimal.Decimal, maxRiskPct float64) *Sizer {
	if maxRiskPct <= 0 || maxRiskPct > maxRiskCap {
		maxRiskPct = maxRiskCap
	}
	return &Sizer{equity: equity, maxRiskPct: maxRiskPct}
}

// SetEquity refreshes tracked equity, called by the portfolio after closes.
func (s *Sizer) SetEquity(equity decimal.Decimal) {
	s.mu.Lock()
	s.equity = equity
	s.mu.Unlock()
}

// Equity returns the tracked equity.
func (s *Sizer) Equity() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.equity
}

// Size attaches risk_pct, size, and sizing meta to a decision. Standby and
// non-firing decisions, or plans without both entry and stop, size to zero.
func (s *Sizer) Size(d types.Decision, fs types.FactorSet) types.Decision {
	if d.Mode == types.ModeStandby || !d.Action.Fires() {
		return d
	}
	if !fs.Entry.Valid || !fs.Stop.Valid {
		return d
	}
	stopDist := fs.Entry.Dec.Sub(fs.Stop.Dec).Abs()
	if !stopDist.IsPositive() {
		return d
	}

	riskPct := baseRisk(d.Mode) * confidenceMult(d.Confidence) * volatilityMult(fs.VolRisk)
	if riskPct > s.maxRiskPct {
		riskPct = s.maxRiskPct
	}
	if riskPct <= 0 {
		return d
	}

	equity := s.Equity()
	riskAmount := equity.Mul(decimal.NewFromFloat(riskPct))

	d.RiskPct = riskPct
	d.Size = riskAmount.Div(stopDist)
	d.Meta = &types.SizingMeta{
		Equity:       equity,
		BaseRiskPct:  baseRisk(d.Mode),
		ConfMult:     confidenceMult(d.Confidence),
		VolMult:      volatilityMult(fs.VolRisk),
		StopDistance: stopDist,
	}
	return d
}

func baseRisk(m types.Mode) float64 {
	switch m {
	case types.ModeSniper:
		return baseRiskSniper
	case types.ModeContinuation:
		return baseRiskContinuation
	}
	return 0
}

// confidenceMult scales risk down on weaker scores: nothing below 5, full
// size only near the top of the scale.
func confidenceMult(conf float64) float64 {
	switch {
	case conf < 5.0:
		return 0
	case conf < 7.0:
		return 0.6
	case conf < 7.8:
		return 0.9
	default:
		return 1.0
	}
}

func volatilityMult(v types.VolRisk) float64 {
	switch v {
	case types.VolHigh:
		return 0.6
	case types.VolExtreme:
		return 0.25
	}
	return 1.0
}
