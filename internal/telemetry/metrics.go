package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// APIRequests counts backend calls by endpoint and response code.
	// Transport failures are recorded with code "error".
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficdash",
			Name:      "api_requests_total",
			Help:      "Total number of requests sent to the traffic backend",
		},
		[]string{"endpoint", "code"},
	)

	// RefreshAttempts counts 401-driven refresh attempts by outcome
	RefreshAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficdash",
			Name:      "auth_refresh_attempts_total",
			Help:      "Total number of token refresh attempts triggered by 401 responses",
		},
		[]string{"outcome"},
	)

	// StaleResponses counts query responses discarded because a newer request superseded them
	StaleResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficdash",
			Name:      "stale_responses_total",
			Help:      "Total number of query responses discarded as stale",
		},
		[]string{"kind"},
	)

	// BackendRequests counts requests served by the mock backend
	BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficdash",
			Subsystem: "mock",
			Name:      "requests_total",
			Help:      "Total number of requests served by the mock backend",
		},
		[]string{"route", "code"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry
// This function is idempotent and can be called multiple times safely
func InitMetrics() {
	once.Do(func() {
		// Register metrics, ignoring errors if already registered
		prometheus.DefaultRegisterer.Register(APIRequests)
		prometheus.DefaultRegisterer.Register(RefreshAttempts)
		prometheus.DefaultRegisterer.Register(StaleResponses)
		prometheus.DefaultRegisterer.Register(BackendRequests)
	})
}
