package profiles

import (
	"strings"

	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ASSET PROFILES - Curated symbol universe
// ═══════════════════════════════════════════════════════════════════════════════

// AssetClass groups symbols for volatility bucketing.
type AssetClass string

const (
	ClassFX        AssetClass = "fx"
	ClassCommodity AssetClass = "commodity"
	ClassIndex     AssetClass = "index"
)

// Profile describes one tracked instrument.
type Profile struct {
	Symbol  string
	Display string
	Class   AssetClass

	// ATR-as-fraction-of-price bucket edges. At or above High -> high,
	// at or above Extreme -> extreme. Commodities and indices run wider
	// bands than FX majors.
	VolHigh    float64
	VolExtreme float64
}

// VolRegime buckets an ATR fraction for this instrument.
func (p Profile) VolRegime(atrFrac float64) types.VolRisk {
	switch {
	case atrFrac >= p.VolExtreme:
		return types.VolExtreme
	case atrFrac >= p.VolHigh:
		return types.VolHigh
	default:
		return types.VolNormal
	}
}

func fx(symbol, display string) Profile {
	return Profile{Symbol: symbol, Display: display, Class: ClassFX, VolHigh: 0.0018, VolExtreme: 0.0035}
}

func commodity(symbol, display string) Profile {
	return Profile{Symbol: symbol, Display: display, Class: ClassCommodity, VolHigh: 0.0040, VolExtreme: 0.0080}
}

func index(symbol, display string) Profile {
	return Profile{Symbol: symbol, Display: display, Class: ClassIndex, VolHigh: 0.0040, VolExtreme: 0.0080}
}

// Defaults is the curated universe: FX majors, metals, energy, US indices.
func Defaults() []Profile {
	return []Profile{
		fx("EURUSD", "EUR/USD"),
		fx("GBPUSD", "GBP/USD"),
		fx("USDJPY", "USD/JPY"),
		fx("USDCHF", "USD/CHF"),
		fx("AUDUSD", "AUD/USD"),
		fx("NZDUSD", "NZD/USD"),
		fx("USDCAD", "USD/CAD"),
		commodity("XAUUSD", "XAU/USD (Gold)"),
		commodity("XAGUSD", "XAG/USD (Silver)"),
		commodity("WTI", "WTI Crude"),
		index("US30", "US30 (Dow)"),
		index("US100", "US100 (Nasdaq)"),
	}
}

// Lookup finds a profile by canonical symbol. Unknown symbols get FX-class
// defaults so one odd ticker never breaks a refresh.
func Lookup(symbol string) Profile {
	sym := Canonical(symbol)
	for _, p := range Defaults() {
		if p.Symbol == sym {
			return p
		}
	}
	return fx(sym, sym)
}

// Canonical strips broker suffixes (XAUUSD.a, US100-cash, eurusd_i).
func Canonical(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, sep := range []string{".", "-", "_"} {
		if i := strings.Index(s, sep); i > 0 {
			s = s[:i]
		}
	}
	return s
}

// ═══════════════════════════════════════════════════════════════════════════════
// SESSION ELIGIBILITY - Configuration table, not control flow
// ═══════════════════════════════════════════════════════════════════════════════
//
// Which setups may execute in which session is tunable data. Asia is valid
// for sniper reversals (liquidity runs cluster there) but not continuation;
// after-hours executes nothing.
//

// SessionRule says which setups a session may execute.
type SessionRule struct {
	SniperValid       bool
	ContinuationValid bool
}

// SessionTable maps every session label to its eligibility rule.
type SessionTable map[types.Session]SessionRule

// DefaultSessions is the shipped eligibility table.
func DefaultSessions() SessionTable {
	return SessionTable{
		types.SessionAsia:     {SniperValid: true, ContinuationValid: false},
		types.SessionLondon:   {SniperValid: true, ContinuationValid: true},
		types.SessionNewYork:  {SniperValid: true, ContinuationValid: true},
		types.SessionAfterHrs: {SniperValid: false, ContinuationValid: false},
	}
}

// Rule returns the eligibility for a session, defaulting closed.
func (t SessionTable) Rule(s types.Session) SessionRule {
	if r, ok := t[s]; ok {
		return r
	}
	return SessionRule{}
}
