// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerEntriesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_ledger_entries_written_total",
			Help: "Total number of feedback entries written to candidate ledgers",
		},
	)

	ClaimAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_claim_attempts_total",
			Help: "Total number of claim attempts by result",
		},
		[]string{"result"},
	)

	OwnershipTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_ownership_transitions_total",
			Help: "Total number of ownership transitions by reason code",
		},
		[]string{"reason"},
	)

	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_sweep_runs_total",
			Help: "Total number of expiry sweeps by trigger",
		},
		[]string{"trigger"},
	)

	SweepReleasedJobs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_sweep_released_jobs_total",
			Help: "Total number of job engagements released by expiry sweeps",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "crm_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"route", "method", "status"},
	)
)
