package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// matchCandidatesScored counts candidate pairs run through ScorePair
	matchCandidatesScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memora_match_candidates_scored_total",
		Help: "Total candidate memorials scored by the matcher",
	})

	// matchesFound counts candidates that cleared the match threshold
	matchesFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memora_matches_found_total",
		Help: "Total candidates at or above the match threshold",
	})

	// suggestionsCreated counts newly stored suggestions
	suggestionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memora_suggestions_created_total",
		Help: "Total smart match suggestions created",
	})

	// suggestionTransitions counts suggestion status changes by target status
	suggestionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memora_suggestion_transitions_total",
		Help: "Suggestion status changes by resulting status",
	}, []string{"status"})

	// relationshipTransitions counts edge creations and status changes
	relationshipTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memora_relationship_transitions_total",
		Help: "Relationship edges created or moved, by resulting status",
	}, []string{"status"})

	// generateDuration tracks suggestion generation latency
	generateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "memora_suggestion_generate_duration_seconds",
		Help:    "Suggestion generation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})

	// treeBuilds counts family tree builds
	treeBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memora_tree_builds_total",
		Help: "Total family trees built",
	})
)
