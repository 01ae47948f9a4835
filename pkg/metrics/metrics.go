package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ValidationAttempts counts scan attempts by outcome (accepted|already_used|invalid|error).
	ValidationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatepass_validation_attempts_total",
			Help: "Total number of credential validation attempts",
		},
		[]string{"outcome"},
	)

	// CredentialsIssued counts credentials created by the generator (issued|reissued).
	CredentialsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatepass_credentials_issued_total",
			Help: "Total number of credentials issued",
		},
		[]string{"kind"},
	)

	// IssuanceFailures counts registrants whose issuance attempt failed, by reason.
	IssuanceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatepass_issuance_failures_total",
			Help: "Total number of failed credential issuance attempts",
		},
		[]string{"reason"},
	)

	// RealtimeSubscribers tracks connected live-feed clients.
	RealtimeSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gatepass_realtime_subscribers",
			Help: "Number of connected realtime scan feed clients",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatepass_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status", "surface"},
	)
)
