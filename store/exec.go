package store

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

const defaultWorkers = 16

// executor bounds the number of goroutines blocked in file I/O at the same time. Waiting for a slot
// respects ctx, a started operation always runs to completion
type executor struct {
	sem *semaphore.Weighted
}

func newExecutor(workers int) *executor {
	if workers < 1 {
		workers = defaultWorkers
	}

	return &executor{sem: semaphore.NewWeighted(int64(workers))}
}

func (e *executor) do(ctx context.Context, fn func() error) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire store worker: %w", err)
	}
	defer e.sem.Release(1)

	return fn()
}
