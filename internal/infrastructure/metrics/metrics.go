package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rider_seeker"

var (
	SwipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "swipes_total", Help: "Swipes recorded by action"},
		[]string{"action"},
	)
	MatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "matches_total", Help: "Match state changes by resulting status"},
		[]string{"status"},
	)
	RidesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rides_total", Help: "Ride state changes by resulting status"},
		[]string{"status"},
	)
	RatingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ratings_total", Help: "Ratings submitted by type"},
		[]string{"type"},
	)
	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "payments_total", Help: "Payment state changes by resulting status"},
		[]string{"status"},
	)
	OTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "otp_requests_total", Help: "OTP sends and verifications by outcome"},
		[]string{"step", "outcome"},
	)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "circuit_breaker_state", Help: "0 closed, 1 half-open, 2 open"},
		[]string{"name"},
	)
	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "circuit_breaker_requests_total", Help: "Calls through a circuit breaker by result"},
		[]string{"name", "result"},
	)
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "events_published_total", Help: "Domain events handed to the broker by type and outcome"},
		[]string{"type", "outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
