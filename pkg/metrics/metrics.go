package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Task metrics
	TasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fednclient_tasks_total",
			Help: "Total number of task directives processed by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fednclient_task_duration_seconds",
			Help:    "Time from task dispatch to the terminal result RPC returning",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	// Transfer metrics
	TransferBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fednclient_transfer_bytes_total",
			Help: "Total bytes transferred over Download/Upload streams",
		},
		[]string{"direction"},
	)

	TransferFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fednclient_transfer_failures_total",
			Help: "Total number of failed model transfers by direction",
		},
		[]string{"direction"},
	)

	// Heartbeat metrics
	HeartbeatsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fednclient_heartbeats_total",
			Help: "Total number of heartbeat attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Metric emission (log_metrics) bookkeeping
	MetricsEmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fednclient_metrics_emitted_total",
			Help: "Total number of log_metrics calls forwarded as SendModelMetric RPCs",
		},
	)
)

func init() {
	prometheus.MustRegister(TasksTotal)
	prometheus.MustRegister(TaskDuration)
	prometheus.MustRegister(TransferBytesTotal)
	prometheus.MustRegister(TransferFailuresTotal)
	prometheus.MustRegister(HeartbeatsTotal)
	prometheus.MustRegister(MetricsEmittedTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
