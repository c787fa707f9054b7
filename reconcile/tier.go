package reconcile

import "github.com/robotomize/fxcache/snapshot"

// Last90Window is the number of days the short history feed covers
const Last90Window = 90

// Tier names one of the fixed windows the remote source exposes
type Tier int

const (
	TierNone Tier = iota
	TierDaily
	TierLast90
	TierHistory
)

func (t Tier) String() string {
	switch t {
	case TierDaily:
		return "daily"
	case TierLast90:
		return "last90"
	case TierHistory:
		return "history"
	default:
		return "none"
	}
}

// PlanFetch picks the smallest window that covers the days between local and remote.
// It is the only place that knows the shape of the remote feeds
func PlanFetch(local, remote snapshot.Date) Tier {
	gap := local.DaysUntil(remote)

	switch {
	case gap <= 0:
		return TierNone
	case gap == 1:
		return TierDaily
	case gap <= Last90Window:
		return TierLast90
	default:
		return TierHistory
	}
}
