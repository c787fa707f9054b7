// Package reconcile keeps a snapshot store level with the remote source: Bootstrap fills an empty
// store from the full history, Reconciler fetches only the missing window on every tick and Syncer
// runs the ticks on a schedule.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robotomize/fxcache/provider"
	"github.com/robotomize/fxcache/snapshot"
)

var (
	// ErrSourceUnavailable remote fetch failed or returned no data where data was required
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrSourceRegressed remote latest date is older than the local current date
	ErrSourceRegressed = errors.New("source regressed")
)

// Store is the write half of the snapshot store
type Store interface {
	Put(ctx context.Context, snaps ...snapshot.Snapshot) error
	SetCurrent(ctx context.Context, d snapshot.Date) error
	CurrentDate(ctx context.Context) (snapshot.Date, error)
	Flush(ctx context.Context) error
}

type Status int

const (
	StatusUpToDate Status = iota
	StatusAdvanced
)

func (s Status) String() string {
	if s == StatusAdvanced {
		return "advanced"
	}

	return "up_to_date"
}

// Result describes one reconciliation tick
type Result struct {
	Status    Status
	Tier      Tier
	Local     snapshot.Date
	Remote    snapshot.Date
	// Current is where the pointer stands after the tick. It can stay below Remote when the fetched
	// window stops short of the daily feed
	Current   snapshot.Date
	Committed int
}

func NewReconciler(st Store, src provider.Source, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{st: st, src: src, logger: logger}
}

// Reconciler is the single writer of a bootstrapped store. Concurrent Reconcile calls are serialized
type Reconciler struct {
	mtx    sync.Mutex
	st     Store
	src    provider.Source
	logger *slog.Logger
}

// Reconcile brings the store level with the remote latest date. Any failure aborts the tick and the
// pointer stays at the last date that was fully committed
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	daily, err := r.src.FetchDaily(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: fetch daily: %w", ErrSourceUnavailable, err)
	}

	local, err := r.st.CurrentDate(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("current date: %w", err)
	}

	res := Result{Status: StatusUpToDate, Local: local, Remote: daily.Date, Current: local}

	switch daily.Date.Compare(local) {
	case 0:
		return res, nil
	case -1:
		return res, fmt.Errorf("%w: remote %s is older than local %s", ErrSourceRegressed, daily.Date, local)
	}

	res.Tier = PlanFetch(local, daily.Date)

	fetched, err := r.fetch(ctx, res.Tier, daily)
	if err != nil {
		return res, err
	}

	for _, snap := range fetched {
		if !snap.Date.After(local) {
			continue
		}

		if err := r.st.Put(ctx, snap.WithReferenceRate()); err != nil {
			return res, fmt.Errorf("put %s: %w", snap.Date, err)
		}

		if err := r.st.SetCurrent(ctx, snap.Date); err != nil {
			return res, fmt.Errorf("set current %s: %w", snap.Date, err)
		}

		res.Current = snap.Date
		res.Committed++
	}

	if res.Committed == 0 {
		return res, fmt.Errorf("%w: %s window holds nothing newer than %s", ErrSourceUnavailable, res.Tier, local)
	}

	if err := r.st.Flush(ctx); err != nil {
		return res, fmt.Errorf("flush: %w", err)
	}

	res.Status = StatusAdvanced

	r.logger.Debug("store advanced",
		"tier", res.Tier.String(),
		"from", local.String(),
		"to", res.Current.String(),
		"remote", res.Remote.String(),
		"committed", res.Committed,
	)

	return res, nil
}

// fetch returns the tier window in ascending order without repeated dates
func (r *Reconciler) fetch(ctx context.Context, tier Tier, daily snapshot.Snapshot) ([]snapshot.Snapshot, error) {
	var (
		list []snapshot.Snapshot
		err  error
	)

	switch tier {
	case TierDaily:
		return []snapshot.Snapshot{daily}, nil
	case TierLast90:
		list, err = r.src.FetchLast90(ctx)
	case TierHistory:
		list, err = r.src.FetchHistory(ctx)
	default:
		return nil, fmt.Errorf("unexpected tier %s", tier)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrSourceUnavailable, tier, err)
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %s feed is empty", ErrSourceUnavailable, tier)
	}

	sorted := make([]snapshot.Snapshot, len(list))
	copy(sorted, list)

	return snapshot.SortByDate(sorted), nil
}
