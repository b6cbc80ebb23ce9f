package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"idlbind/internal/core/errors"
)

// Metrics definitions
var (
	PassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "idlbind_pass_seconds",
		Help:    "Time spent in one pipeline pass.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pass"})

	Symbols = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "idlbind_symbols_total",
		Help: "Number of symbols in the tree after the last successful run.",
	})

	Modules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "idlbind_modules_total",
		Help: "Number of modules in the tree after the last successful run.",
	})

	BoundaryTypes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "idlbind_boundary_types_total",
		Help: "Number of boundary types found by the last successful run.",
	})

	Failures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idlbind_failures_total",
		Help: "Failed runs, by error code.",
	}, []string{"code"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "idlbind_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

func ObservePass(pass string, elapsed time.Duration) {
	PassDuration.WithLabelValues(pass).Observe(elapsed.Seconds())
}

func RecordTotals(modules, symbols, boundaryTypes int) {
	Modules.Set(float64(modules))
	Symbols.Set(float64(symbols))
	BoundaryTypes.Set(float64(boundaryTypes))
}

// RecordFailure counts err under its domain code, or INTERNAL_ERROR for plain
// errors.
func RecordFailure(err error) {
	if err == nil {
		return
	}
	Failures.WithLabelValues(string(errors.CodeOf(err))).Inc()
}

// WriteMetrics writes every registered metric to path in the Prometheus text
// format, for pickup by a node-exporter textfile collector.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
