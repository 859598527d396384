// Package metrics exposes the Prometheus collectors shared by the API
// server and the background workers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts API requests by route, method, and status text
	// (http.StatusText of the response code).
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camcoord_http_requests_total",
		Help: "Total HTTP requests handled, by route, method, and status.",
	}, []string{"route", "method", "status"})

	// HTTPRequestDuration observes handler latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "camcoord_http_request_duration_seconds",
		Help:    "HTTP handler latency in seconds, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// WorkerClaimedTotal counts events claimed per poll iteration, by worker.
	WorkerClaimedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camcoord_worker_claimed_total",
		Help: "Total events claimed per poll iteration, by worker.",
	}, []string{"worker"})

	// WorkerCommitTotal counts terminal outcomes per worker iteration.
	WorkerCommitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camcoord_worker_commit_total",
		Help: "Total claimed-event outcomes, by worker and result (committed|failed|released).",
	}, []string{"worker", "result"})

	// WorkerWorkDuration observes the per-event transformation time, by worker.
	WorkerWorkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "camcoord_worker_work_duration_seconds",
		Help:    "Per-event transformation duration in seconds, by worker.",
		Buckets: prometheus.DefBuckets,
	}, []string{"worker"})

	// WorkerPollEmptyTotal counts poll iterations that claimed nothing, by worker.
	WorkerPollEmptyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camcoord_worker_poll_empty_total",
		Help: "Total poll iterations that claimed zero events, by worker.",
	}, []string{"worker"})

	// CircuitBreakerState records the active breaker state per component.
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "camcoord_circuit_breaker_state",
		Help: "Circuit breaker state by component (1 for the active state, 0 otherwise).",
	}, []string{"component", "state"})
)

var circuitStates = []string{"closed", "half-open", "open"}

// SetCircuitBreakerState records the active circuit breaker state for a component.
func SetCircuitBreakerState(component, state string) {
	for _, s := range circuitStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		CircuitBreakerState.WithLabelValues(component, s).Set(value)
	}
}

// RecordClaim increments the per-worker claimed counter by n.
func RecordClaim(worker string, n int) {
	if n <= 0 {
		WorkerPollEmptyTotal.WithLabelValues(worker).Inc()
		return
	}
	WorkerClaimedTotal.WithLabelValues(worker).Add(float64(n))
}

// RecordCommit records a terminal per-event outcome for a worker.
func RecordCommit(worker, result string) {
	WorkerCommitTotal.WithLabelValues(worker, result).Inc()
}
