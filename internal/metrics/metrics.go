package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the chatbot collectors. Use New with a private registry in
// tests and Default in the server.
type Metrics struct {
	Responses       *prometheus.CounterVec
	ResponseLatency *prometheus.HistogramVec
	LLMFailures     *prometheus.CounterVec
	BreakerState    *prometheus.GaugeVec
	StoreFailures   prometheus.Counter
	RateLimited     *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	WSConnections   prometheus.Gauge
}

// New registers all collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Responses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_responses_total",
				Help: "Answers returned, by operation, source and category",
			},
			[]string{"operation", "source", "category"},
		),
		ResponseLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatbot_response_duration_seconds",
				Help:    "Time to produce an answer",
				Buckets: []float64{.005, .05, .25, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation", "source"},
		),
		LLMFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_llm_failures_total",
				Help: "LLM calls that fell back to the rule-based classifier",
			},
			[]string{"operation", "reason"},
		),
		BreakerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chatbot_circuit_breaker_state",
				Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
		StoreFailures: f.NewCounter(
			prometheus.CounterOpts{
				Name: "chatbot_interaction_store_failures_total",
				Help: "Interactions that could not be recorded",
			},
		),
		RateLimited: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_rate_limited_total",
				Help: "Requests rejected by a rate limiter",
			},
			[]string{"scope"},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		WSConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "chatbot_websocket_connections",
				Help: "Open websocket connections",
			},
		),
	}
}

var defaultMetrics = New(prometheus.DefaultRegisterer)

// Default returns the collectors registered with the global registry
func Default() *Metrics {
	return defaultMetrics
}
