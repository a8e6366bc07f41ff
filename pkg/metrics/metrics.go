// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// CompletionDuration tracks text-generation request duration per model.
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_completion_duration_seconds",
			Help:    "Text-generation request duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
		[]string{"model", "status"},
	)

	// CompletionFallbacksTotal tracks completions served from deterministic templates.
	CompletionFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_completion_fallbacks_total",
			Help: "Completions that fell back to deterministic templates",
		},
		[]string{"component"},
	)

	// GatewayUnavailableTotal tracks gateway failures by reason.
	GatewayUnavailableTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_gateway_unavailable_total",
			Help: "Gateway failures after exhausting the model fallback list",
		},
		[]string{"reason"},
	)

	// AgentsCreatedTotal tracks agents materialized by the registry.
	AgentsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agents_created_total",
			Help: "Total agents created",
		},
	)

	// ExchangesTotal tracks completed conversation exchanges.
	ExchangesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_exchanges_total",
			Help: "Total completed conversation exchanges",
		},
	)

	// ConversationsConcludedTotal tracks conversations that reached a conclusion.
	ConversationsConcludedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_concluded_total",
			Help: "Total conversations concluded",
		},
	)

	// AuditEventsTotal tracks audit events published to JetStream.
	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_total",
			Help: "Audit events published to the event stream",
		},
		[]string{"type", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCompletion records metrics for a text-generation call.
func RecordCompletion(model, status string, duration float64) {
	CompletionDuration.WithLabelValues(model, status).Observe(duration)
}

// RecordFallback records a deterministic-template fallback for a component.
func RecordFallback(component string) {
	CompletionFallbacksTotal.WithLabelValues(component).Inc()
}
