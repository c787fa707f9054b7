package provider

import (
	"context"

	"github.com/robotomize/fxcache/snapshot"
)

// Source is an interface for getting reference rates from a remote publisher. The publisher only
// exposes a few fixed windows of history, so Source mirrors them instead of taking a date range
//
//go:generate mockgen -source source.go -destination mock_source.go -package provider
type Source interface {
	// FetchHistory returns the full published history, oldest first
	FetchHistory(ctx context.Context) ([]snapshot.Snapshot, error)

	// FetchLast90 returns the last 90 days of history, oldest first
	FetchLast90(ctx context.Context) ([]snapshot.Snapshot, error)

	// FetchDaily returns the most recent published day
	FetchDaily(ctx context.Context) (snapshot.Snapshot, error)
}
