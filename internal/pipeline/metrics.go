package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the ingestion counters and the run duration histogram.
type Metrics struct {
	runs       *prometheus.CounterVec
	datapoints prometheus.Counter
	duration   prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "luftguete_runs_total",
			Help: "Ingestion runs by outcome (skipped, ingested, failed).",
		}, []string{"outcome"}),
		datapoints: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "luftguete_datapoints_total",
			Help: "Datapoints parsed from ingested files.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "luftguete_run_duration_seconds",
			Help:    "Wall time of one ingestion run.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.runs, m.datapoints, m.duration)
	return m
}

func (m *Metrics) observeRun(outcome string, count int, elapsed time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
	m.datapoints.Add(float64(count))
	m.duration.Observe(elapsed.Seconds())
}
