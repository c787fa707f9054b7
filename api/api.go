// Package api serves the cached reference rates over HTTP
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robotomize/fxcache/snapshot"
)

// Service is the read side of the cache
type Service interface {
	Current(ctx context.Context) (snapshot.Snapshot, error)
	Day(ctx context.Context, d snapshot.Date) (snapshot.Snapshot, bool, error)
	Range(ctx context.Context, start, end snapshot.Date) ([]snapshot.Snapshot, error)
}

type Option func(*handler)

// WithGatherer set the registry exposed on /metrics
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *handler) {
		h.gatherer = g
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *handler) {
		h.logger = logger
	}
}

// NewRouter returns the routes of the service
func NewRouter(svc Service, opts ...Option) http.Handler {
	h := &handler{
		svc:      svc,
		logger:   slog.Default(),
		gatherer: prometheus.DefaultGatherer,
	}

	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Head("/latest", h.latestHead)
		r.Get("/latest", h.latest)
		r.Get("/history", h.history)
		r.Get("/{date}", h.day)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

type handler struct {
	svc      Service
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}
