// Package query is the read-only view over the snapshot store used by the HTTP layer
package query

import (
	"context"
	"fmt"

	"github.com/robotomize/fxcache/snapshot"
)

// Reader is the read half of the snapshot store
type Reader interface {
	Current(ctx context.Context) (snapshot.Snapshot, error)
	Get(ctx context.Context, d snapshot.Date) (snapshot.Snapshot, bool, error)
	Range(ctx context.Context, start, end snapshot.Date) ([]snapshot.Snapshot, error)
}

func New(r Reader) *Service {
	return &Service{r: r}
}

type Service struct {
	r Reader
}

// Current returns the snapshot of the most recent committed date
func (s *Service) Current(ctx context.Context) (snapshot.Snapshot, error) {
	snap, err := s.r.Current(ctx)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("current: %w", err)
	}

	return snap.Clone(), nil
}

// Day returns false without an error when no snapshot was published for d
func (s *Service) Day(ctx context.Context, d snapshot.Date) (snapshot.Snapshot, bool, error) {
	snap, ok, err := s.r.Get(ctx, d)
	if err != nil {
		return snapshot.Snapshot{}, false, fmt.Errorf("day %s: %w", d, err)
	}

	if !ok {
		return snapshot.Snapshot{}, false, nil
	}

	return snap.Clone(), true, nil
}

// Range returns the snapshots between start and end inclusive, oldest first
func (s *Service) Range(ctx context.Context, start, end snapshot.Date) ([]snapshot.Snapshot, error) {
	if start.After(end) {
		return []snapshot.Snapshot{}, nil
	}

	list, err := s.r.Range(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("range %s..%s: %w", start, end, err)
	}

	out := make([]snapshot.Snapshot, 0, len(list))
	for _, snap := range list {
		out = append(out, snap.Clone())
	}

	return out, nil
}
