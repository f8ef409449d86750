// Package metrics exposes Prometheus instrumentation for the de-allocation
// pipeline. The pipeline is fire-and-forget; these counters and the logs
// are its only operational surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offboard_deallocation_runs_started_total",
		Help: "Runs that acquired the guard lease and started processing",
	})

	RunsDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offboard_deallocation_runs_denied_total",
		Help: "Runs skipped because another process held the guard lease",
	})

	RunsAborted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offboard_deallocation_runs_aborted_total",
		Help: "Runs aborted before touching any pair (eligibility failure)",
	})

	PairsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offboard_deallocation_pairs_total",
		Help: "Processed (unit, user) pairs by outcome",
	}, []string{"outcome"})

	StepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offboard_deallocation_step_failures_total",
		Help: "Failed saga steps by step name",
	}, []string{"step"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "offboard_deallocation_run_duration_seconds",
		Help:    "Wall-clock duration of granted runs",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

// Pair outcomes.
const (
	OutcomeRevoked        = "revoked"
	OutcomeAlreadyRevoked = "already_revoked"
	OutcomeManualFollowUp = "manual_follow_up"
	OutcomeFailed         = "failed"
)
