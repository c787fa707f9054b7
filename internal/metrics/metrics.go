package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fxcache"

// Tick results
const (
	ResultUpToDate  = "up_to_date"
	ResultAdvanced  = "advanced"
	ResultRegressed = "regressed"
	ResultFailed    = "failed"
)

// Metrics groups the collectors of the sync loop
type Metrics struct {
	Ticks       *prometheus.CounterVec
	Fetches     *prometheus.CounterVec
	Committed   prometheus.Counter
	CurrentDate prometheus.Gauge
}

// New registers the collectors with reg. A nil reg means the default registerer
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	f := promauto.With(reg)

	return &Metrics{
		Ticks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_ticks_total",
			Help:      "Reconciliation ticks by result.",
		}, []string{"result"}),
		Fetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "Remote fetches by tier.",
		}, []string{"tier"}),
		Committed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "committed_snapshots_total",
			Help:      "Snapshots committed by bootstrap and reconciliation.",
		}),
		CurrentDate: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_date_seconds",
			Help:      "Date of the current pointer as unix seconds.",
		}),
	}
}
