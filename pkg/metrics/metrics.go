package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AccessChecks counts project access evaluations and their outcome (allow|deny|error).
	AccessChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhub_access_checks_total",
			Help: "Total number of project access checks",
		},
		[]string{"result"},
	)

	// VerificationCodesIssued counts issued account verification codes by kind.
	VerificationCodesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskhub_verification_codes_issued_total",
			Help: "Total number of issued verification codes",
		},
		[]string{"kind"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskhub_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
