// Package metrics exposes Prometheus collectors for the importer.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	importsTotal          *prometheus.CounterVec
	stageFailuresTotal    *prometheus.CounterVec
	importDurationSeconds prometheus.Histogram

	once sync.Once
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		importsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfbridge_imports_total",
				Help: "Total pipeline runs, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		stageFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfbridge_stage_failures_total",
				Help: "Pipeline failures, labeled by stage and kind.",
			},
			[]string{"stage", "kind"},
		)

		importDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shelfbridge_import_duration_seconds",
				Help:    "End-to-end duration of successful imports.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
		)
	})
}

// ObserveImport counts one finished run. Duration is only recorded for
// successful runs. No-op when Init has not been called.
func ObserveImport(outcome string, d time.Duration) {
	if importsTotal == nil {
		return
	}
	importsTotal.WithLabelValues(outcome).Inc()
	if outcome == "succeeded" && importDurationSeconds != nil {
		importDurationSeconds.Observe(d.Seconds())
	}
}

// ObserveStageFailure counts one stage failure. No-op when Init has not been
// called.
func ObserveStageFailure(stage, kind string) {
	if stageFailuresTotal == nil {
		return
	}
	stageFailuresTotal.WithLabelValues(stage, kind).Inc()
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
