// Package monitoring defines the Prometheus metrics exported by the
// discovery pipeline, modeled on internal/extraction/metrics.go's
// promauto-at-package-init convention.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunDuration measures end-to-end wall-clock time for a single
	// discovery run, labeled by terminal status (spec.md §7).
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_run_duration_seconds",
			Help:    "Time spent executing a single discovery run end-to-end",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
		},
		[]string{"status"},
	)

	// ProviderCalls counts each search/fallback provider invocation by
	// outcome (ok, insufficient_credits, rate_limited, transport).
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_provider_calls_total",
			Help: "Search/fallback provider calls by provider name and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// DedupDecisions counts candidates kept vs. dropped by dedup stage
	// (within_batch, existing_domain, semantic).
	DedupDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_dedup_decisions_total",
			Help: "Candidates dropped by each dedup stage vs. kept",
		},
		[]string{"stage", "decision"},
	)

	// EnrichmentConfidence observes the confidence_score distribution of
	// completed enrichments (spec.md §4.7 step 7).
	EnrichmentConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_enrichment_confidence_score",
			Help:    "Distribution of EnrichedCompetitor.ConfidenceScore across enrich calls",
			Buckets: prometheus.LinearBuckets(0, 10, 11), // 0,10,...,100
		},
	)

	// JobOutcomes counts worker job terminal outcomes (completed, failed,
	// retried) by job kind.
	JobOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_job_outcomes_total",
			Help: "Worker job outcomes by kind and result",
		},
		[]string{"kind", "outcome"},
	)
)
