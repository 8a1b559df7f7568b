// Package observability exposes Prometheus metrics for the activity log gateway.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	actionRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_log_api",
		Subsystem: "dispatcher",
		Name:      "requests_total",
		Help:      "Requests handled by the dispatcher, by action and status code.",
	}, []string{"action", "status"})
	actionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "activity_log_api",
		Subsystem: "dispatcher",
		Name:      "request_duration_seconds",
		Help:      "Time spent handling a request, by action.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action"})
	storeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "activity_log_api",
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Time spent in store operations, by operation and outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	generationCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_log_api",
		Subsystem: "generation",
		Name:      "calls_total",
		Help:      "Text generation calls, by outcome.",
	}, []string{"outcome"})
	generationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "activity_log_api",
		Subsystem: "generation",
		Name:      "call_duration_seconds",
		Help:      "Latency of outbound text generation calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16},
	})
)

func init() {
	prometheus.MustRegister(actionRequests, actionDuration, storeDuration, generationCalls, generationDuration)
}

// Generation outcomes
const (
	OutcomeSuccess       = "success"
	OutcomeNotConfigured = "not_configured"
	OutcomeHTTPError     = "http_error"
	OutcomeTransport     = "transport_error"
	OutcomeMalformed     = "malformed_response"
	OutcomeError         = "error"
)

// RecordRequest counts a dispatched request and observes its latency.
func RecordRequest(action string, status int, elapsed time.Duration) {
	if action == "" {
		action = "none"
	}
	actionRequests.WithLabelValues(action, strconv.Itoa(status)).Inc()
	actionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// RecordStoreOperation observes one store round trip.
func RecordStoreOperation(operation string, err error, elapsed time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	storeDuration.WithLabelValues(operation, outcome).Observe(elapsed.Seconds())
}

// RecordGeneration counts a generation call. Calls that never left the
// process (missing key) are counted without a latency sample.
func RecordGeneration(outcome string, elapsed time.Duration) {
	generationCalls.WithLabelValues(outcome).Inc()
	if outcome != OutcomeNotConfigured {
		generationDuration.Observe(elapsed.Seconds())
	}
}
