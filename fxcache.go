// Package fxcache caches the ECB euro foreign exchange reference rates in an embedded store and keeps
// them current with periodic incremental updates.
package fxcache

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robotomize/fxcache/internal/logging"
	"github.com/robotomize/fxcache/internal/metrics"
	"github.com/robotomize/fxcache/provider"
	"github.com/robotomize/fxcache/provider/ecb"
	"github.com/robotomize/fxcache/query"
	"github.com/robotomize/fxcache/reconcile"
	"github.com/robotomize/fxcache/snapshot"
	"github.com/robotomize/fxcache/store"
)

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultRetryNum       = 3
	DefaultRetryDuration  = 5 * time.Second
)

type Option func(*Cache)

type Options struct {
	RetryNum         uint64
	RetryDuration    time.Duration
	RequestTimeout   time.Duration
	BaseURL          string
	Sync             reconcile.Config
	StoreWorkers     int
	StoreOpenTimeout time.Duration
}

// WithSource replaces the ECB supplier, the retry and URL options are then ignored
func WithSource(src provider.Source) Option {
	return func(c *Cache) {
		c.src = src
	}
}

// WithBaseURL set scheme and host of the ECB feeds
func WithBaseURL(raw string) Option {
	return func(c *Cache) {
		c.opts.BaseURL = raw
	}
}

// WithRetryNum set number of repeated requests for data retrieval errors from the source
func WithRetryNum(n uint64) Option {
	return func(c *Cache) {
		c.opts.RetryNum = n
	}
}

// WithRetryDuration set the pause between repeated requests
func WithRetryDuration(t time.Duration) Option {
	return func(c *Cache) {
		c.opts.RetryDuration = t
	}
}

// WithRequestTimeout set a timeout for source requests
func WithRequestTimeout(t time.Duration) Option {
	return func(c *Cache) {
		c.opts.RequestTimeout = t
	}
}

// WithSyncConfig set the update interval and the tick timeout
func WithSyncConfig(cfg reconcile.Config) Option {
	return func(c *Cache) {
		c.opts.Sync = cfg
	}
}

// WithStoreWorkers set the maximum number of concurrent store operations
func WithStoreWorkers(n int) Option {
	return func(c *Cache) {
		c.opts.StoreWorkers = n
	}
}

// WithStoreOpenTimeout set how long opening the store waits for a file lock held by another process
func WithStoreOpenTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.opts.StoreOpenTimeout = d
	}
}

// WithRegisterer set where the collectors are registered, by default a private registry is used
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Cache) {
		c.reg = reg
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// Cache is the local copy of the reference rates. Reads are safe for concurrent use, writes happen
// only from Reconcile and the background syncer
type Cache struct {
	opts   Options
	src    provider.Source
	reg    prometheus.Registerer
	logger *slog.Logger

	st      *store.Store
	query   *query.Service
	rec     *reconcile.Reconciler
	syncer  *reconcile.Syncer
	metrics *metrics.Metrics
}

// Open opens the store at path, or bootstraps it from the full history when no usable store exists.
// client is used for the ECB feeds, nil means a preconfigured client
func Open(ctx context.Context, path string, client *http.Client, opts ...Option) (*Cache, error) {
	c := &Cache{
		opts: Options{
			RetryNum:         DefaultRetryNum,
			RetryDuration:    DefaultRetryDuration,
			RequestTimeout:   DefaultRequestTimeout,
			BaseURL:          ecb.DefaultBaseURL,
			Sync:             reconcile.DefaultConfig(),
			StoreOpenTimeout: store.DefaultOpenTimeout,
		},
		logger: logging.FromContext(ctx),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.reg == nil {
		c.reg = prometheus.NewRegistry()
	}

	if c.src == nil {
		c.src = ecb.NewSource(client,
			ecb.WithBaseURL(c.opts.BaseURL),
			ecb.WithRetryNum(c.opts.RetryNum),
			ecb.WithRetryDuration(c.opts.RetryDuration),
			ecb.WithRequestTimeout(c.opts.RequestTimeout),
		)
	}

	c.metrics = metrics.New(c.reg)

	st, err := c.openStore(logging.WithLogger(ctx, c.logger), path)
	if err != nil {
		return nil, err
	}

	current, err := st.CurrentDate(ctx)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("current date: %w", err)
	}

	c.metrics.CurrentDate.Set(float64(current.Unix()))

	c.st = st
	c.query = query.New(st)
	c.rec = reconcile.NewReconciler(st, c.src, c.logger)
	c.syncer = reconcile.NewSyncer(c.opts.Sync, c.rec, c.metrics, c.logger)

	return c, nil
}

func (c *Cache) openStore(ctx context.Context, path string) (*store.Store, error) {
	storeOpts := []store.Option{
		store.WithWorkers(c.opts.StoreWorkers),
		store.WithOpenTimeout(c.opts.StoreOpenTimeout),
	}

	exists, err := store.Exists(ctx, path, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("store exists: %w", err)
	}

	if exists {
		st, err := store.Open(path, storeOpts...)
		if err != nil {
			return nil, fmt.Errorf("store open: %w", err)
		}

		return st, nil
	}

	c.logger.Info("no usable store found, bootstrapping from full history", "path", path)

	st, err := reconcile.Bootstrap(ctx, path, c.src, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	if n, err := st.Count(ctx); err == nil {
		c.metrics.Committed.Add(float64(n))
	}

	return st, nil
}

// Current returns the rates of the most recent published day
func (c *Cache) Current(ctx context.Context) (snapshot.Snapshot, error) {
	return c.query.Current(ctx)
}

// Day returns the rates published for d, false when d has none
func (c *Cache) Day(ctx context.Context, d snapshot.Date) (snapshot.Snapshot, bool, error) {
	return c.query.Day(ctx, d)
}

// Range returns the days published between start and end inclusive, oldest first
func (c *Cache) Range(ctx context.Context, start, end snapshot.Date) ([]snapshot.Snapshot, error) {
	return c.query.Range(ctx, start, end)
}

// Reconcile runs a single update outside of the schedule
func (c *Cache) Reconcile(ctx context.Context) (reconcile.Result, error) {
	return c.rec.Reconcile(ctx)
}

// Start runs the periodic updates in the background
func (c *Cache) Start(ctx context.Context) error {
	return c.syncer.Start(ctx)
}

// Stop cancels the running update and waits until the background loop exits or ctx is done. The
// pointer stays at the last fully committed date
func (c *Cache) Stop(ctx context.Context) error {
	return c.syncer.Stop(ctx)
}

func (c *Cache) Close() error {
	return c.st.Close()
}
