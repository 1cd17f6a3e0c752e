package observability

import "github.com/prometheus/client_golang/prometheus"

// HTTP metrics are labelled by route group rather than raw path so the label
// cardinality is bounded by the API surface, not by whatever paths clients
// probe.
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clockchat_http_requests_total",
			Help: "HTTP requests by method, route group and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clockchat_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route group and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	authFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "clockchat_auth_failures_total",
			Help: "Requests rejected by API key authentication.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDurationSeconds, authFailuresTotal)
}

func IncrementAuthFailure() {
	authFailuresTotal.Inc()
}
