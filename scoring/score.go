package scoring

import (
	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// CONFIDENCE SCORER - Weighted additive model, clamped to [0,10]
// ═══════════════════════════════════════════════════════════════════════════════
//
// Weights sum to a 10-point ceiling. The score never fires anything on its
// own: the gate demands the structural preconditions too.
//

const (
	weightPO3Active    = 2.0 // sweep and MSS both present
	weightSweep        = 2.0
	weightReclaim      = 1.0
	weightMSS          = 2.0
	weightEntryConfirm = 1.0
	weightSession      = 1.0
	weightHTFAlign     = 1.0
	weightDistribution = 0.5

	penaltyExtremeVol = 1.0

	// CleanSniperBonus augments a LOCAL copy of the score when the gate
	// checks sniper eligibility. It must never appear in a persisted
	// decision's confidence.
	CleanSniperBonus = 1.0
)

// Confidence maps a factor set to a confidence score in [0,10].
func Confidence(fs types.FactorSet) float64 {
	score := 0.0

	if fs.LiquiditySweep && fs.MSSShift {
		score += weightPO3Active
	}
	if fs.LiquiditySweep {
		score += weightSweep
	}
	if fs.AgreementReclaim {
		score += weightReclaim
	}
	if fs.MSSShift {
		score += weightMSS
	}
	if entryConfirmed(fs) {
		score += weightEntryConfirm
	}
	if sessionAligned(fs) {
		score += weightSession
	}
	if fs.HTFAligned {
		score += weightHTFAlign
	}
	if fs.Phase == types.PhaseDistribution {
		score += weightDistribution
	}
	if fs.VolRisk == types.VolExtreme {
		score -= penaltyExtremeVol
	}

	return clamp(score)
}

// entryConfirmed picks the setup-appropriate confirmation variant:
// continuation in distribution phase, sniper otherwise.
func entryConfirmed(fs types.FactorSet) bool {
	if fs.Phase == types.PhaseDistribution {
		return fs.EntryContinuation
	}
	return fs.EntrySniper
}

func sessionAligned(fs types.FactorSet) bool {
	if fs.Phase == types.PhaseDistribution {
		return fs.SessionContinuity
	}
	return fs.SessionSniper
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
