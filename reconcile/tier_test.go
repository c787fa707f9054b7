package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/robotomize/fxcache/snapshot"
)

func TestPlanFetch(t *testing.T) {
	t.Parallel()

	local := snapshot.MustParseDate("2021-06-18")

	testCases := []struct {
		name     string
		remote   snapshot.Date
		expected Tier
	}{
		{name: "same_day", remote: local, expected: TierNone},
		{name: "older", remote: local.AddDays(-1), expected: TierNone},
		{name: "one_day", remote: local.AddDays(1), expected: TierDaily},
		{name: "two_days", remote: local.AddDays(2), expected: TierLast90},
		{name: "ninety_days", remote: local.AddDays(90), expected: TierLast90},
		{name: "ninety_one_days", remote: local.AddDays(91), expected: TierHistory},
		{name: "years", remote: local.AddDays(4000), expected: TierHistory},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tc.expected, PlanFetch(local, tc.remote)); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestTier_String(t *testing.T) {
	t.Parallel()

	got := []string{TierNone.String(), TierDaily.String(), TierLast90.String(), TierHistory.String()}
	if diff := cmp.Diff([]string{"none", "daily", "last90", "history"}, got); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}
