// Package metrics registers the client's Prometheus instrumentation: task
// outcome and duration, transfer bytes and failures, heartbeat outcomes,
// and log_metrics emission counts. Handler exposes them for scraping.
package metrics
