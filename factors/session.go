package factors

import (
	"time"

	"github.com/web3guy0/fxsentry/types"
)

// SessionAt labels a timestamp with its trading session. Boundaries are UTC:
// Asia 00-07, London 07-13, New York 13-21, after-hours for the rest and all
// weekend.
func SessionAt(t time.Time) types.Session {
	utc := t.UTC()
	if wd := utc.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return types.SessionAfterHrs
	}
	switch h := utc.Hour(); {
	case h < 7:
		return types.SessionAsia
	case h < 13:
		return types.SessionLondon
	case h < 21:
		return types.SessionNewYork
	default:
		return types.SessionAfterHrs
	}
}
