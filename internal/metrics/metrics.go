// Package metrics provides Prometheus collectors for the selection engine.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Selection outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeEmpty    = "empty"
)

var (
	// SelectionRequests counts selection calls.
	// Labels: outcome (ok, fallback, empty)
	SelectionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wordwise",
			Subsystem: "selection",
			Name:      "requests_total",
			Help:      "Total number of word selection requests by outcome",
		},
		[]string{"outcome"},
	)

	// SelectionQuality observes the quality score of each selection.
	SelectionQuality = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "wordwise",
			Subsystem: "selection",
			Name:      "quality",
			Help:      "Selection quality score (0-100) per request",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
	)

	// SelectionDuration tracks how long selection takes.
	SelectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "wordwise",
			Subsystem: "selection",
			Name:      "duration_seconds",
			Help:      "Duration of word selection in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// SelectedWords counts selected words by bucket.
	// Labels: category (struggling, review, new, novel, backfill)
	SelectedWords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wordwise",
			Subsystem: "selection",
			Name:      "words_total",
			Help:      "Total number of selected words by category",
		},
		[]string{"category"},
	)

	// Answers counts recorded answers.
	// Labels: correct (true, false)
	Answers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wordwise",
			Subsystem: "scheduler",
			Name:      "answers_total",
			Help:      "Total number of recorded answers",
		},
		[]string{"correct"},
	)

	// MasteryTransitions counts level changes.
	// Labels: direction (promotion, demotion)
	MasteryTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wordwise",
			Subsystem: "scheduler",
			Name:      "mastery_transitions_total",
			Help:      "Total number of mastery level transitions",
		},
		[]string{"direction"},
	)

	// NoveltyDecisions counts novelty gate outcomes.
	// Labels: decision (inject, skip, gated)
	NoveltyDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wordwise",
			Subsystem: "novelty",
			Name:      "decisions_total",
			Help:      "Total number of novelty injection decisions",
		},
		[]string{"decision"},
	)

	// DegradedLookups counts per-word lookups that fell back to "new".
	DegradedLookups = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wordwise",
			Subsystem: "scorer",
			Name:      "degraded_lookups_total",
			Help:      "Total number of performance lookups that failed during scoring",
		},
	)
)

// RecordAnswer increments the answer counter.
func RecordAnswer(correct bool) {
	Answers.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

// RecordSelection records one selection outcome and its quality.
func RecordSelection(outcome string, quality float64, seconds float64) {
	SelectionRequests.WithLabelValues(outcome).Inc()
	SelectionQuality.Observe(quality)
	SelectionDuration.Observe(seconds)
}
