package storage

// ═══════════════════════════════════════════════════════════════════════════════
// ADAPTIVE THRESHOLDS - Advisory drift from recent fire/win rates
// ═══════════════════════════════════════════════════════════════════════════════
//
// The execution floors may drift by at most ±0.3 points based on how the
// engine has been doing. Purely advisory: the drift is stored and surfaced,
// and applied only when explicitly enabled.
//

const (
	maxDrift = 0.3

	// firing on more than 30% of decisions means the floors are too loose
	fireRateHigh = 0.30
	// firing on fewer than 5% may mean they are too tight
	fireRateLow = 0.05

	winRateLow  = 0.40
	winRateHigh = 0.60

	driftStep = 0.1
)

// SuggestDrift nudges the current delta given recent decision and trade
// counts. Small windows produce no change.
func SuggestDrift(current float64, total, fires, wins, losses int64) float64 {
	next := current

	if total >= 20 {
		fireRate := float64(fires) / float64(total)
		if fireRate > fireRateHigh {
			next += driftStep
		} else if fireRate < fireRateLow {
			next -= driftStep
		}
	}

	if settled := wins + losses; settled >= 10 {
		winRate := float64(wins) / float64(settled)
		if winRate < winRateLow {
			next += driftStep
		} else if winRate > winRateHigh {
			next -= driftStep
		}
	}

	if next > maxDrift {
		next = maxDrift
	}
	if next < -maxDrift {
		next = -maxDrift
	}
	return next
}
