package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SHARED TYPES - Avoid import cycles
// ═══════════════════════════════════════════════════════════════════════════════

// Candle is a single OHLC bar. Bars are always chronological and volume may be
// zero for FX feeds that don't report it.
type Candle struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Bias is the directional lean read from price action.
type Bias string

const (
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
	BiasNeutral Bias = "neutral"
)

// Directional reports whether the bias points somewhere.
func (b Bias) Directional() bool {
	return b == BiasBullish || b == BiasBearish
}

// Opposite returns the mirrored bias (neutral stays neutral).
func (b Bias) Opposite() Bias {
	switch b {
	case BiasBullish:
		return BiasBearish
	case BiasBearish:
		return BiasBullish
	}
	return BiasNeutral
}

// Phase is the Power-of-Three market-structure phase.
type Phase string

const (
	PhaseAccumulation Phase = "ACCUMULATION"
	PhaseManipulation Phase = "MANIPULATION"
	PhaseDistribution Phase = "DISTRIBUTION"
)

// VolRisk buckets ATR-as-fraction-of-price against asset-class thresholds.
type VolRisk string

const (
	VolNormal  VolRisk = "normal"
	VolHigh    VolRisk = "high"
	VolExtreme VolRisk = "extreme"
)

// Action is what the decision gate tells the operator to do.
type Action string

const (
	ActionBuyNow    Action = "BUY NOW"
	ActionSellNow   Action = "SELL NOW"
	ActionWatch     Action = "WATCH"
	ActionWait      Action = "WAIT"
	ActionDoNothing Action = "DO NOTHING"
)

// Fires reports whether the action opens a trade.
func (a Action) Fires() bool {
	return a == ActionBuyNow || a == ActionSellNow
}

// Mode describes which setup produced a decision.
type Mode string

const (
	ModeSniper       Mode = "sniper"
	ModeContinuation Mode = "continuation"
	ModeStandby      Mode = "standby"
)

// Session is the trading-session label for a bar's timestamp.
type Session string

const (
	SessionAsia     Session = "asia"
	SessionLondon   Session = "london"
	SessionNewYork  Session = "newyork"
	SessionAfterHrs Session = "afterhours"
)

// ConfirmType tags how an entry-confirmation candle resolved.
type ConfirmType string

const (
	ConfirmNone         ConfirmType = ""
	ConfirmReversalExp  ConfirmType = "reversal_expansion"
	ConfirmContinuation ConfirmType = "continuation_expansion"
)

// ═══════════════════════════════════════════════════════════════════════════════
// LEVEL - Explicit "unavailable" numeric
// ═══════════════════════════════════════════════════════════════════════════════
//
// Every price level is either a finite decimal or explicitly unavailable.
// Nothing downstream should ever do arithmetic on a zero-value level by
// accident, so Valid travels with the number.
//

// Level is a price level that may be unavailable.
type Level struct {
	Dec   decimal.Decimal
	Valid bool
}

// NoLevel is the unavailable sentinel.
var NoLevel = Level{}

// LevelFrom wraps a decimal as an available level.
func LevelFrom(d decimal.Decimal) Level {
	return Level{Dec: d, Valid: true}
}

// Float returns the level as float64, or 0 when unavailable.
func (l Level) Float() float64 {
	if !l.Valid {
		return 0
	}
	return l.Dec.InexactFloat64()
}

// String renders the level or "unavailable".
func (l Level) String() string {
	if !l.Valid {
		return "unavailable"
	}
	return l.Dec.String()
}

// ═══════════════════════════════════════════════════════════════════════════════
// FACTOR SET - Immutable per-symbol snapshot for one refresh
// ═══════════════════════════════════════════════════════════════════════════════

// FactorSet is the full feature snapshot the extractor derives from raw OHLC.
// NewNeutralFactorSet is the only other constructor; every consumer can rely
// on enums being set and levels carrying their own validity.
type FactorSet struct {
	Symbol string

	Bias    Bias
	PO3Bias Bias
	Phase   Phase

	StructureOK bool
	LiquidityOK bool
	VolRisk     VolRisk

	// Sub-signals feeding phase and score
	LiquiditySweep   bool
	SweepAbove       bool
	MSSShift         bool
	AgreementReclaim bool
	AccumulationSeen bool
	DistributionOK   bool
	HTFAligned       bool

	// Entry confirmation, per setup variant
	EntrySniper       bool
	EntryContinuation bool
	ConfirmTag        ConfirmType

	// Trade plan levels
	Entry Level
	Stop  Level
	TP1   Level
	TP2   Level
	RR    float64

	// Fair value gap context
	NearFVG  bool
	FVGScore float64

	// Session context
	Session           Session
	SessionSniper     bool
	SessionContinuity bool

	// Advisory only, never a hard block
	NewsBlock bool

	LastClose Level
	BarCount  int
}

// NewNeutralFactorSet is the degrade-and-continue default: every boolean
// false, every level unavailable, phase ACCUMULATION.
func NewNeutralFactorSet(symbol string) FactorSet {
	return FactorSet{
		Symbol:  symbol,
		Bias:    BiasNeutral,
		PO3Bias: BiasNeutral,
		Phase:   PhaseAccumulation,
		VolRisk: VolNormal,
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// DECISION - Gate output, immutable after sizing
// ═══════════════════════════════════════════════════════════════════════════════

// TradePlan carries the executable levels attached to a firing decision.
type TradePlan struct {
	Entry Level
	Stop  Level
	TP1   Level
	TP2   Level
	RR    float64
}

// SizingMeta records how a position size was derived, for observability.
type SizingMeta struct {
	Equity       decimal.Decimal
	BaseRiskPct  float64
	ConfMult     float64
	VolMult      float64
	StopDistance decimal.Decimal
}

// Decision is created once per symbol per refresh by the gate, sized by the
// risk module, and never mutated downstream.
type Decision struct {
	Symbol     string
	Bias       Bias
	Mode       Mode
	Confidence float64
	Action     Action
	Commentary string
	Plan       *TradePlan

	RiskPct float64
	Size    decimal.Decimal
	Meta    *SizingMeta

	CreatedAt time.Time
}

// ═══════════════════════════════════════════════════════════════════════════════
// PORTFOLIO TYPES
// ═══════════════════════════════════════════════════════════════════════════════

// Position is an open paper trade.
type Position struct {
	Symbol   string
	Side     string // "long" or "short"
	Entry    decimal.Decimal
	Size     decimal.Decimal
	Stop     Level
	TP1      Level
	TP2      Level
	OpenedAt time.Time

	// live fields, refreshed every cycle
	LastPrice     Level
	UnrealizedPnL decimal.Decimal
}

// Trade is a closed position, immutable once written.
type Trade struct {
	Symbol   string
	Side     string
	Entry    decimal.Decimal
	Exit     decimal.Decimal
	Size     decimal.Decimal
	PnL      decimal.Decimal
	Reason   string // "stop" / "tp1" / "tp2" / "reversal"
	OpenedAt time.Time
	ClosedAt time.Time
}
