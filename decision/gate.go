package decision

import (
	"fmt"
	"time"

	"github.com/web3guy0/fxsentry/factors"
	"github.com/web3guy0/fxsentry/scoring"
	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// DECISION GATE - Ordered checks, first match wins
// ═══════════════════════════════════════════════════════════════════════════════
//
// The gate runs once per symbol per refresh and keeps no state between
// symbols. A trade only ever fires from a setup check: the score alone never
// forces an action.
//

// Gate turns a factor set plus confidence into a decision.
type Gate struct {
	rrMin             float64
	sniperFloor       float64
	continuationFloor float64
}

// NewGate builds a gate with the given thresholds.
func NewGate(rrMin, sniperFloor, continuationFloor float64) *Gate {
	if rrMin < 2.0 {
		rrMin = 2.0
	}
	return &Gate{
		rrMin:             rrMin,
		sniperFloor:       sniperFloor,
		continuationFloor: continuationFloor,
	}
}

// Evaluate walks the ordered checks and emits exactly one decision.
func (g *Gate) Evaluate(fs types.FactorSet, confidence float64, now time.Time) types.Decision {
	d := types.Decision{
		Symbol:     fs.Symbol,
		Bias:       fs.PO3Bias,
		Mode:       types.ModeStandby,
		Confidence: confidence,
		Plan:       planFrom(fs),
		CreatedAt:  now,
	}

	// No usable history: nothing to evaluate, not an error.
	if fs.BarCount < factors.MinBars {
		d.Action = types.ActionDoNothing
		d.Commentary = g.annotate(fs, "Market data unavailable; nothing to evaluate.")
		return d
	}

	// Hard stop: the RR floor outranks any confidence.
	if fs.PO3Bias.Directional() && fs.RR < g.rrMin {
		d.Action = types.ActionWait
		d.Commentary = g.annotate(fs, fmt.Sprintf("RR %.2f is below the %.1f floor; standing down.", fs.RR, g.rrMin))
		return d
	}

	if g.sniperReady(fs) && confidence+scoring.CleanSniperBonus >= g.sniperFloor {
		d.Action = fireAction(fs.PO3Bias)
		d.Mode = types.ModeSniper
		d.Commentary = g.annotate(fs, fmt.Sprintf("Sniper reversal: sweep %s swept, MSS confirmed, entry triggered.", sweepSide(fs)))
		return d
	}

	if g.continuationReady(fs) && confidence >= g.continuationFloor {
		d.Action = fireAction(fs.PO3Bias)
		d.Mode = types.ModeContinuation
		d.Commentary = g.annotate(fs, "Distribution continuation: structure holding, entry triggered.")
		return d
	}

	d.Action = types.ActionWatch
	d.Commentary = g.annotate(fs, standbyCommentary(fs))
	return d
}

// sniperReady checks every structural precondition for the reversal setup.
func (g *Gate) sniperReady(fs types.FactorSet) bool {
	return (fs.Phase == types.PhaseAccumulation || fs.Phase == types.PhaseManipulation) &&
		fs.AccumulationSeen &&
		fs.LiquiditySweep &&
		fs.AgreementReclaim &&
		fs.MSSShift &&
		fs.EntrySniper &&
		fs.SessionSniper &&
		fs.RR >= g.rrMin &&
		fs.PO3Bias.Directional()
}

// continuationReady checks the trend-following setup.
func (g *Gate) continuationReady(fs types.FactorSet) bool {
	return fs.Phase == types.PhaseDistribution &&
		fs.DistributionOK &&
		fs.StructureOK &&
		fs.EntryContinuation &&
		fs.SessionContinuity &&
		fs.RR >= g.rrMin &&
		fs.PO3Bias.Directional()
}

// standbyCommentary names the first unmet precondition, in setup order.
func standbyCommentary(fs types.FactorSet) string {
	switch {
	case fs.Phase == types.PhaseDistribution && !fs.EntryContinuation:
		return "Distribution underway; waiting for continuation confirmation."
	case !fs.LiquiditySweep:
		return "Waiting for a liquidity sweep."
	case !fs.MSSShift:
		return "Sweep detected; waiting for MSS confirmation."
	case !fs.EntrySniper:
		return "Sweep and MSS in place; waiting for entry confirmation."
	default:
		return "Conditions developing; no setup yet."
	}
}

// annotate appends the news advisory. Advisory only, never a block.
func (g *Gate) annotate(fs types.FactorSet, commentary string) string {
	if fs.NewsBlock {
		return commentary + " High-impact news imminent; extra caution advised."
	}
	return commentary
}

func fireAction(b types.Bias) types.Action {
	if b == types.BiasBullish {
		return types.ActionBuyNow
	}
	return types.ActionSellNow
}

func sweepSide(fs types.FactorSet) string {
	if fs.SweepAbove {
		return "above"
	}
	return "below"
}

// planFrom carries the factor levels into the decision whenever they exist,
// including on WAIT/WATCH, so the operator can see what was on the table.
func planFrom(fs types.FactorSet) *types.TradePlan {
	if !fs.Entry.Valid || !fs.Stop.Valid {
		return nil
	}
	return &types.TradePlan{
		Entry: fs.Entry,
		Stop:  fs.Stop,
		TP1:   fs.TP1,
		TP2:   fs.TP2,
		RR:    fs.RR,
	}
}
