package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Feed metrics track per-source fetch results
var (
	// FeedFetchesTotal counts feed fetches by source and status (success, failure)
	FeedFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_feed_fetches_total",
			Help: "Total number of feed fetches by source and status",
		},
		[]string{"source", "status"},
	)

	// FeedEntriesRendered counts entries kept for the page, per source
	FeedEntriesRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_feed_entries_total",
			Help: "Total number of feed entries kept for rendering",
		},
		[]string{"source"},
	)

	// FeedFetchDuration measures time to fetch and parse one feed
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_feed_fetch_duration_seconds",
			Help:    "Time taken to fetch and parse a feed",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source"},
	)
)

// Quiz metrics track the optional quiz generation stage
var (
	// QuizOutcomesTotal counts quiz stage results by outcome
	// (success, auth_missing, empty_input, network, upstream_status, malformed_response)
	QuizOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_quiz_outcomes_total",
			Help: "Total number of quiz generation outcomes",
		},
		[]string{"outcome"},
	)

	// QuizGenerationDuration measures the AI call duration
	QuizGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_quiz_generation_duration_seconds",
			Help:    "Time taken by the quiz generation request",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// QuizQuestionCards records how many question cards the last quiz contained
	QuizQuestionCards = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_quiz_question_cards",
			Help: "Number of question-card elements in the last generated quiz",
		},
	)
)

// Run metrics track whole pipeline executions
var (
	// RunsTotal counts pipeline runs by status (success, failure)
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_runs_total",
			Help: "Total number of digest runs",
		},
		[]string{"status"},
	)

	// RunDuration measures a full pipeline run
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_run_duration_seconds",
			Help:    "Time taken by a full digest run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// LastSuccessTimestamp records when the page was last written
	LastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "digest_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful digest run",
		},
	)
)

// Resilience metrics
var (
	// CircuitBreakerState is 0 closed, 1 half-open, 2 open, per breaker name
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "digest_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

// RecordFeedFetch records one source fetch and how many entries it yielded.
func RecordFeedFetch(source string, success bool, entries int) {
	status := "success"
	if !success {
		status = "failure"
	}
	FeedFetchesTotal.WithLabelValues(source, status).Inc()
	if entries > 0 {
		FeedEntriesRendered.WithLabelValues(source).Add(float64(entries))
	}
}

// RecordFeedFetchDuration records the fetch duration for a source.
func RecordFeedFetchDuration(source string, d time.Duration) {
	FeedFetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordQuizOutcome counts one quiz stage outcome.
func RecordQuizOutcome(outcome string) {
	QuizOutcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordQuizDuration records the AI call duration.
func RecordQuizDuration(d time.Duration) {
	QuizGenerationDuration.Observe(d.Seconds())
}

// RecordQuizQuestionCards records the question-card count of the last quiz.
func RecordQuizQuestionCards(n int) {
	QuizQuestionCards.Set(float64(n))
}

// RecordRun records a finished run.
func RecordRun(success bool, d time.Duration) {
	RunDuration.Observe(d.Seconds())
	if success {
		RunsTotal.WithLabelValues("success").Inc()
		LastSuccessTimestamp.SetToCurrentTime()
		return
	}
	RunsTotal.WithLabelValues("failure").Inc()
}

// RecordCircuitBreakerState records the state of breaker name.
func RecordCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// WriteTextfile writes the default registry in text exposition format to path.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
