// Package metrics exposes Prometheus instrumentation for the debt tracker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Mutations counts ledger mutations by operation name
	// (add_debt, delete_debt, add_payment, delete_payment, rename_person).
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debttracker_mutations_total",
		Help: "Number of ledger mutations applied, by operation.",
	}, []string{"op"})

	// MutationFailures counts mutations that were rejected by storage.
	MutationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debttracker_mutation_failures_total",
		Help: "Number of ledger mutations that failed, by operation.",
	}, []string{"op"})

	// RequestDuration observes HTTP request latency by path and status.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "debttracker_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "status"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
