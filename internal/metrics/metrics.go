package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the job collectors; it is kept apart from the default
// registry so textfile exports carry only job series.
var Registry = prometheus.NewRegistry()

var (
	RowsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "signaljob_rows_processed_total", Help: "Input rows processed"},
	)
	SignalRate = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "signaljob_signal_rate", Help: "Fraction of rows with close above rolling mean"},
	)
	LatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signaljob_latency_ms",
			Help:    "Wall-clock job latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signaljob_runs_total", Help: "Job runs by final status"},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(RowsProcessed, SignalRate, LatencyMs, RunsTotal)
}

// ObserveSuccess records a completed run.
func ObserveSuccess(rows int, rate float64, latencyMs int64) {
	RowsProcessed.Add(float64(rows))
	SignalRate.Set(rate)
	LatencyMs.Observe(float64(latencyMs))
	RunsTotal.WithLabelValues("success").Inc()
}

// ObserveFailure records a failed run.
func ObserveFailure() {
	RunsTotal.WithLabelValues("error").Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
