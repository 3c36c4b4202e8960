// Package metrics provides Prometheus metrics for sweep observability.
//
// Metrics are exposed via a dedicated HTTP server on /metrics in Prometheus
// format. The daemon registers them with the default registry; tests use the
// WithRegistry constructor against a private registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweepMetrics holds metrics describing sweep runs.
type SweepMetrics struct {
	// RunsTotal counts completed sweep runs by outcome ("ok", "error").
	RunsTotal *prometheus.CounterVec

	// DeletedTotal counts backups deleted across all runs.
	DeletedTotal prometheus.Counter

	// DeleteErrorsTotal counts failed delete attempts across all runs.
	DeleteErrorsTotal prometheus.Counter

	// Scanned, Kept, and Skipped describe the most recent run.
	Scanned prometheus.Gauge
	Kept    prometheus.Gauge
	Skipped prometheus.Gauge

	// LastRunTimestamp is the Unix time of the most recent completed run.
	LastRunTimestamp prometheus.Gauge

	// RunDuration observes wall time per run in seconds.
	RunDuration prometheus.Histogram
}

// NewSweepMetrics creates and registers sweep metrics with the default
// registry.
func NewSweepMetrics() *SweepMetrics {
	return NewSweepMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewSweepMetricsWithRegistry creates sweep metrics registered with a custom
// registry. Useful for testing to avoid conflicts with the default registry.
func NewSweepMetricsWithRegistry(reg prometheus.Registerer) *SweepMetrics {
	m := newSweepMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

func newSweepMetrics() *SweepMetrics {
	return &SweepMetrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "granson",
				Subsystem: "sweep",
				Name:      "runs_total",
				Help:      "Completed sweep runs by outcome.",
			},
			[]string{"outcome"},
		),
		DeletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "granson",
				Subsystem: "sweep",
				Name:      "deleted_total",
				Help:      "Backups deleted by retention enforcement.",
			},
		),
		DeleteErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "granson",
				Subsystem: "sweep",
				Name:      "delete_errors_total",
				Help:      "Delete attempts that failed.",
			},
		),
		Scanned: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "granson",
				Subsystem: "sweep",
				Name:      "scanned",
				Help:      "Backups scanned in the most recent run.",
			},
		),
		Kept: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "granson",
				Subsystem: "sweep",
				Name:      "kept",
				Help:      "Backups retained by the policy in the most recent run.",
			},
		),
		Skipped: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "granson",
				Subsystem: "sweep",
				Name:      "skipped",
				Help:      "Artifacts ignored in the most recent run because their keys did not match the naming rule.",
			},
		),
		LastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "granson",
				Subsystem: "sweep",
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time of the most recent completed run.",
			},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "granson",
				Subsystem: "sweep",
				Name:      "run_duration_seconds",
				Help:      "Wall time per sweep run.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
	}
}

func (m *SweepMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RunsTotal,
		m.DeletedTotal,
		m.DeleteErrorsTotal,
		m.Scanned,
		m.Kept,
		m.Skipped,
		m.LastRunTimestamp,
		m.RunDuration,
	}
}

// RecordRun updates every per-run metric in one place.
func (m *SweepMetrics) RecordRun(outcome string, scanned, kept, deleted, skipped, deleteErrors int, duration time.Duration) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.DeletedTotal.Add(float64(deleted))
	m.DeleteErrorsTotal.Add(float64(deleteErrors))
	m.Scanned.Set(float64(scanned))
	m.Kept.Set(float64(kept))
	m.Skipped.Set(float64(skipped))
	m.LastRunTimestamp.Set(float64(time.Now().Unix()))
	m.RunDuration.Observe(duration.Seconds())
}
