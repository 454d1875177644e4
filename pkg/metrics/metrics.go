package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records credential exchanges by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docgate_auth_attempts_total",
			Help: "Total number of federated credential exchanges",
		},
		[]string{"result"},
	)

	// PolicyDecisions counts access policy evaluations and their outcome
	// (allow|deny_not_found|deny_forbidden).
	PolicyDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docgate_policy_decisions_total",
			Help: "Total number of content access policy decisions",
		},
		[]string{"role", "decision"},
	)

	// RenewalReuseSignals counts presentations of already-consumed renewal
	// credentials, a possible theft indicator.
	RenewalReuseSignals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docgate_renewal_reuse_signals_total",
			Help: "Total number of consumed renewal credentials presented again",
		},
	)

	// ActiveCredentials tracks unconsumed, unexpired renewal credentials.
	ActiveCredentials = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docgate_active_renewal_credentials",
			Help: "Number of live renewal credentials",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docgate_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
