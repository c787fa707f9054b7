package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/robotomize/fxcache/internal/logging"
	"github.com/robotomize/fxcache/provider"
	"github.com/robotomize/fxcache/snapshot"
	"github.com/robotomize/fxcache/store"
)

// Bootstrap creates the store at path from the full remote history. A file left at path by an
// interrupted bootstrap is discarded. No file is created when the history can not be fetched
func Bootstrap(ctx context.Context, path string, src provider.Source, opts ...store.Option) (*store.Store, error) {
	logger := logging.FromContext(ctx)

	history, err := src.FetchHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch history: %w", ErrSourceUnavailable, err)
	}

	if len(history) == 0 {
		return nil, fmt.Errorf("%w: history feed is empty", ErrSourceUnavailable)
	}

	if err := removeFile(path); err != nil {
		return nil, err
	}

	st, err := store.Open(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("store open: %w", err)
	}

	if err := populate(ctx, st, history); err != nil {
		_ = st.Close()
		if rmErr := removeFile(path); rmErr != nil {
			logger.Error("remove partial store", "path", path, "error", rmErr)
		}

		return nil, err
	}

	logger.Info("store bootstrapped", "path", path, "snapshots", len(history))

	return st, nil
}

func populate(ctx context.Context, st *store.Store, history []snapshot.Snapshot) error {
	sorted := make([]snapshot.Snapshot, 0, len(history))
	for _, snap := range history {
		sorted = append(sorted, snap.WithReferenceRate())
	}

	sorted = snapshot.SortByDate(sorted)

	if err := st.Put(ctx, sorted...); err != nil {
		return fmt.Errorf("put history: %w", err)
	}

	last := sorted[len(sorted)-1].Date
	if err := st.SetCurrent(ctx, last); err != nil {
		return fmt.Errorf("set current %s: %w", last, err)
	}

	if err := st.Flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	return nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}

	return nil
}
