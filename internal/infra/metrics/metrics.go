package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttemptsTotal tracks transport invocations by outcome (success, retryable, terminal, failure)
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_attempts_total",
			Help: "Total number of transport attempts",
		},
		[]string{"target", "outcome"},
	)

	// RetriesTotal tracks attempts that were followed by a backoff
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_retries_total",
			Help: "Total number of retries scheduled",
		},
		[]string{"target"},
	)

	// BackoffSeconds tracks the chosen backoff delays
	BackoffSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_backoff_seconds",
			Help:    "Backoff delay before the next attempt in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"target"},
	)

	// CallsTotal tracks final call outcomes
	CallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_calls_total",
			Help: "Total number of logical calls by final result",
		},
		[]string{"target", "result"},
	)

	// CredentialCacheTotal tracks token cache lookups
	CredentialCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_credential_cache_total",
			Help: "Token cache lookups by result",
		},
		[]string{"result"},
	)
)
