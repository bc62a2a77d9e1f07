package poller

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

type selfMetrics struct {
	cycles      *prometheus.CounterVec
	duration    prometheus.Histogram
	series      prometheus.Gauge
	lastSuccess prometheus.Gauge
}

func newSelfMetrics() *selfMetrics {
	m := &selfMetrics{
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cephfs_top_exporter_cycles_total",
				Help: "Collection cycles by result",
			},
			[]string{"result"}, // success or failure
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cephfs_top_exporter_cycle_duration_seconds",
				Help:    "Time taken to acquire and map one snapshot",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		series: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cephfs_top_exporter_series",
				Help: "Number of discovered series",
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cephfs_top_exporter_last_success_timestamp_seconds",
				Help: "Unix time of the last successful cycle",
			},
		),
	}
	// Both results are visible from the first scrape.
	m.cycles.WithLabelValues(resultSuccess)
	m.cycles.WithLabelValues(resultFailure)
	return m
}

func (m *selfMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.cycles, m.duration, m.series, m.lastSuccess}
}

func (m *selfMetrics) observe(result string, took time.Duration) {
	m.cycles.WithLabelValues(result).Inc()
	m.duration.Observe(took.Seconds())
}
