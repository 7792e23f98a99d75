package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream fetch metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of HTTP requests made to the market-data upstream",
		},
		[]string{"status"}, // status: success, throttled, error
	)

	UpstreamRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upstream_retries_total",
			Help: "Total number of upstream request retries",
		},
	)

	UpstreamBackoffWaits = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "upstream_backoff_wait_seconds",
			Help:    "Duration of exponential-backoff waits before upstream retries",
			Buckets: []float64{0.1, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	// Governance cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of fresh cache hits",
		},
		[]string{"namespace"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"namespace"},
	)

	CacheStaleServes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_stale_serves_total",
			Help: "Total number of expired entries served under rate limiting or fetch failure",
		},
		[]string{"namespace"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of oldest-by-insertion cache evictions",
		},
		[]string{"namespace"},
	)

	CacheItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_items",
			Help: "Current number of entries per cache namespace",
		},
		[]string{"namespace"},
	)

	// Admission control metrics
	RateLimitAdmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_admissions_total",
			Help: "Total number of upstream fetches admitted by the sliding window",
		},
		[]string{"namespace"},
	)

	RateLimitDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_denials_total",
			Help: "Total number of upstream fetches denied by the sliding window",
		},
		[]string{"namespace"},
	)

	// Resolution outcomes
	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolutions_total",
			Help: "Total number of governed resolutions by outcome",
		},
		[]string{"namespace", "outcome"}, // outcome: fresh, stale, fetched, failed
	)

	// API request metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"component"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_trips_total",
			Help: "Total number of circuit breaker trips",
		},
		[]string{"component"},
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent to clients",
		},
	)
)
