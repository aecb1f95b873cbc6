// Package metrics exposes Prometheus instrumentation for the command
// pipeline. Collectors are registered on the default registry so the HTTP
// server can serve them through promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	parseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calagent",
		Name:      "parse_total",
		Help:      "Parsed commands by interpreter strategy and resulting intent.",
	}, []string{"strategy", "intent"})

	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calagent",
		Name:      "dispatch_total",
		Help:      "Dispatched commands by intent and outcome.",
	}, []string{"intent", "outcome"})

	completionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "calagent",
		Name:      "completion_duration_seconds",
		Help:      "Latency of model completion requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"model", "status"})

	storeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "calagent",
		Name:      "store_duration_seconds",
		Help:      "Latency of calendar store operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "status"})
)

// ObserveParse records one interpretation result.
func ObserveParse(strategy, intent string) {
	parseTotal.WithLabelValues(strategy, intent).Inc()
}

// ObserveDispatch records one dispatched command. Outcome is "ok" or "error".
func ObserveDispatch(intent string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	dispatchTotal.WithLabelValues(intent, outcome).Inc()
}

// ObserveCompletion records the latency of one model request.
func ObserveCompletion(model string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	completionDuration.WithLabelValues(model, status).Observe(time.Since(start).Seconds())
}

// ObserveStore records the latency of one calendar store call.
func ObserveStore(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	storeDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}
