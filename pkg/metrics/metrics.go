// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ComparisonsTotal tracks (new, candidate) pairs classified by the detector
	ComparisonsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "comparisons_total",
			Help:      "Total number of agent pairs classified",
		},
	)

	// AgentsCheckedTotal tracks new agents classified, by outcome
	AgentsCheckedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "agents_checked_total",
			Help:      "Total number of new agents classified by outcome",
		},
		[]string{"outcome"},
	)

	// DetectDuration tracks the duration of one detection batch in seconds
	DetectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "detect_duration_seconds",
			Help:      "Duration of duplicate detection batches in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// CandidatePoolSize tracks the number of existing agents a batch is compared against
	CandidatePoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "matching",
			Name:      "candidate_pool_size",
			Help:      "Number of existing agents in the candidate pool",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	// ImportedRowsTotal tracks spreadsheet rows read by the importer, by result
	ImportedRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Total number of imported rows by result",
		},
		[]string{"format", "result"},
	)

	// CommittedAgentsTotal tracks commit decisions applied, by action
	CommittedAgentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "commit",
			Name:      "agents_total",
			Help:      "Total number of reviewed agents committed by action",
		},
		[]string{"action"},
	)

	// EventsPublishedTotal tracks agent events sent to Kafka
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of agent events published by type and status",
		},
		[]string{"event_type", "status"},
	)

	// GraphProjectionsTotal tracks agents projected into the graph
	GraphProjectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "graph",
			Name:      "projections_total",
			Help:      "Total number of agent graph projections by status",
		},
		[]string{"status"},
	)
)
