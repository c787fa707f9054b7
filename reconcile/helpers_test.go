package reconcile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/robotomize/fxcache/snapshot"
	"github.com/robotomize/fxcache/store"
)

func snap(date string, rates map[string]float64) snapshot.Snapshot {
	return snapshot.Snapshot{Date: snapshot.MustParseDate(date), Rates: rates}
}

func usd(date string, rate float64) snapshot.Snapshot {
	return snap(date, map[string]float64{"USD": rate})
}

// seededStore opens a store holding snaps with the pointer on the last of them
func seededStore(t *testing.T, snaps ...snapshot.Snapshot) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("store open: %v", err)
	}

	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	for _, s := range snaps {
		if err := st.Put(ctx, s.WithReferenceRate()); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	if len(snaps) > 0 {
		if err := st.SetCurrent(ctx, snaps[len(snaps)-1].Date); err != nil {
			t.Fatalf("set current: %v", err)
		}
	}

	return st
}

type storeState struct {
	Current snapshot.Date
	Count   int
	All     []snapshot.Snapshot
}

func stateOf(t *testing.T, st *store.Store) storeState {
	t.Helper()

	ctx := context.Background()

	current, err := st.CurrentDate(ctx)
	if err != nil {
		t.Fatalf("current date: %v", err)
	}

	count, err := st.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}

	all, err := st.Range(ctx, snapshot.MustParseDate("1900-01-01"), snapshot.MustParseDate("2100-01-01"))
	if err != nil {
		t.Fatalf("range: %v", err)
	}

	return storeState{Current: current, Count: count, All: all}
}
