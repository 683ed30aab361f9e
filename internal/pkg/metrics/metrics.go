package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution, dialog and submission counters, partitioned by network.

var (
	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gas_snap",
		Subsystem: "resolver",
		Name:      "resolutions_total",
		Help:      "Total fee-currency resolutions, by selected currency",
	}, []string{"network", "currency"})

	ResolutionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gas_snap",
		Subsystem: "resolver",
		Name:      "errors_total",
		Help:      "Total failed fee-currency resolutions",
	}, []string{"network"})

	TokenFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gas_snap",
		Subsystem: "resolver",
		Name:      "token_fetch_failures_total",
		Help:      "Total per-token rate or balance fetch failures during resolution",
	}, []string{"network"})

	DialogOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gas_snap",
		Subsystem: "dialog",
		Name:      "outcomes_total",
		Help:      "Total dialog interactions, by type and outcome",
	}, []string{"type", "outcome"})

	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gas_snap",
		Subsystem: "submission",
		Name:      "transactions_total",
		Help:      "Total transaction submissions, by terminal status",
	}, []string{"network", "status"})

	SubmissionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gas_snap",
		Subsystem: "submission",
		Name:      "duration_seconds",
		Help:      "End-to-end duration from broadcast to mined receipt",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"network"})
)
