package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robotomize/fxcache"
	"github.com/robotomize/fxcache/api"
	"github.com/robotomize/fxcache/internal/config"
	"github.com/robotomize/fxcache/internal/logging"
	"github.com/robotomize/fxcache/reconcile"
)

const stopTimeout = 30 * time.Second

var (
	flagSet = flag.NewFlagSet("fxcached", flag.ContinueOnError)
	envFile = flagSet.String("env", ".env", "optional file with environment variables")
)

func main() {
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	ctx, stop := signal.NotifyContext(logging.WithLogger(context.Background(), logger), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := realMain(ctx, cfg); err != nil {
		logger.Error("fxcached failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func realMain(ctx context.Context, cfg *config.Config) error {
	logger := logging.FromContext(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cache, err := fxcache.Open(ctx, cfg.Storage.Location, nil,
		fxcache.WithLogger(logger),
		fxcache.WithRegisterer(reg),
		fxcache.WithBaseURL(cfg.Source.BaseURL),
		fxcache.WithRetryNum(cfg.Source.RetryNum),
		fxcache.WithRetryDuration(cfg.Source.RetryDuration),
		fxcache.WithRequestTimeout(cfg.Source.RequestTimeout),
		fxcache.WithStoreWorkers(cfg.Storage.Workers),
		fxcache.WithStoreOpenTimeout(cfg.Storage.OpenTimeout),
		fxcache.WithSyncConfig(reconcile.Config{Interval: cfg.Sync.Interval, TickTimeout: cfg.Sync.TickTimeout}),
	)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}

	defer func() {
		if err := cache.Close(); err != nil {
			logger.Error("close cache", "error", err)
		}
	}()

	if err := cache.Start(ctx); err != nil {
		return fmt.Errorf("start syncer: %w", err)
	}

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()

		if err := cache.Stop(stopCtx); err != nil {
			logger.Error("stop syncer", "error", err)
		}
	}()

	router := api.NewRouter(cache, api.WithLogger(logger), api.WithGatherer(reg))
	srv := api.NewServer(api.ServerConfig{
		Addr:        cfg.HTTPServer.Addr(),
		Timeout:     cfg.HTTPServer.Timeout,
		IdleTimeout: cfg.HTTPServer.IdleTimeout,
	}, router, logger)

	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}
