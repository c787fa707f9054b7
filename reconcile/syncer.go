package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robotomize/fxcache/internal/metrics"
)

// Reconcilable runs one reconciliation tick
type Reconcilable interface {
	Reconcile(ctx context.Context) (Result, error)
}

type Config struct {
	Interval    time.Duration // tick interval (default: 6m)
	TickTimeout time.Duration // upper bound of a single tick (default: 5m)
}

func DefaultConfig() Config {
	return Config{
		Interval:    6 * time.Minute,
		TickTimeout: 5 * time.Minute,
	}
}

// Syncer runs reconciliation ticks from a single goroutine, so ticks never overlap. A tick that
// fires while another is still running is dropped by the ticker
type Syncer struct {
	cfg     Config
	rec     Reconcilable
	metrics *metrics.Metrics
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncer returns a stopped Syncer. A nil m registers the collectors with a private registry
func NewSyncer(cfg Config, rec Reconcilable, m *metrics.Metrics, logger *slog.Logger) *Syncer {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}

	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = def.TickTimeout
	}

	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Syncer{cfg: cfg, rec: rec, metrics: m, logger: logger}
}

// Start ticks once immediately and then every Interval until Stop
func (s *Syncer) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("syncer started", "interval", s.cfg.Interval, "tick_timeout", s.cfg.TickTimeout)

	return nil
}

// Stop cancels the running tick and waits for the loop to exit or ctx to expire
func (s *Syncer) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("syncer stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Syncer) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.tick()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Syncer) tick() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.TickTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.rec.Reconcile(ctx)

	if res.Tier != TierNone {
		s.metrics.Fetches.WithLabelValues(res.Tier.String()).Inc()
	}

	s.metrics.Committed.Add(float64(res.Committed))

	switch {
	case errors.Is(err, ErrSourceRegressed):
		s.metrics.Ticks.WithLabelValues(metrics.ResultRegressed).Inc()
		s.logger.Warn("remote source is behind the store",
			"local", res.Local.String(),
			"remote", res.Remote.String(),
			"error", err,
		)
	case err != nil:
		s.metrics.Ticks.WithLabelValues(metrics.ResultFailed).Inc()
		if res.Committed > 0 {
			s.metrics.CurrentDate.Set(float64(res.Current.Unix()))
		}

		s.logger.Error("reconcile tick failed",
			"tier", res.Tier.String(),
			"current", res.Current.String(),
			"committed", res.Committed,
			"error", err,
			"duration", time.Since(start),
		)
	case res.Status == StatusAdvanced:
		s.metrics.Ticks.WithLabelValues(metrics.ResultAdvanced).Inc()
		s.metrics.CurrentDate.Set(float64(res.Current.Unix()))
		s.logger.Info("reconcile tick complete",
			"tier", res.Tier.String(),
			"current", res.Current.String(),
			"remote", res.Remote.String(),
			"committed", res.Committed,
			"duration", time.Since(start),
		)
	default:
		s.metrics.Ticks.WithLabelValues(metrics.ResultUpToDate).Inc()
		s.metrics.CurrentDate.Set(float64(res.Current.Unix()))
		s.logger.Debug("store is up to date", "current", res.Current.String())
	}
}
