package quiz

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"news-digest/internal/domain/entity"
	"news-digest/internal/observability/logging"
	"news-digest/internal/observability/metrics"
	"news-digest/internal/observability/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// Defaults for the quiz stage.
const (
	DefaultSampleSize = 8
	DefaultLanguage   = "Traditional Chinese (zh-TW)"
	DefaultTimeout    = 60 * time.Second
)

// Generator sends a prompt to a generative-AI provider and returns the raw text.
// Errors should be *Error so they can be classified.
type Generator interface {
	// Configured reports whether an API key is available. When false the
	// generator is never called.
	Configured() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service runs the quiz stage.
type Service struct {
	Generator  Generator
	Provider   string
	SampleSize int
	Language   string
	Timeout    time.Duration
	// Rand drives sampling; nil uses the global source.
	Rand *rand.Rand
}

// NewService creates a Service with default sample size, language and timeout.
func NewService(gen Generator, provider string) *Service {
	return &Service{
		Generator:  gen,
		Provider:   provider,
		SampleSize: DefaultSampleSize,
		Language:   DefaultLanguage,
		Timeout:    DefaultTimeout,
	}
}

// Generate produces a quiz from pool. It never fails: every problem is
// reported through Result.Err. At most one provider call is made.
func (s *Service) Generate(ctx context.Context, pool []entity.NormalizedSummary) Result {
	ctx, span := tracing.StartSpan(ctx, "quiz.generate",
		attribute.String("provider", s.Provider),
		attribute.Int("pool_size", len(pool)))
	defer span.End()

	res := s.generate(ctx, pool)
	metrics.RecordQuizOutcome(res.Outcome())
	if res.Err != nil {
		tracing.RecordError(span, res.Err)
	}
	return res
}

func (s *Service) generate(ctx context.Context, pool []entity.NormalizedSummary) Result {
	logger := logging.FromContext(ctx)

	if s.Generator == nil || !s.Generator.Configured() {
		logger.Warn("quiz skipped: api key not configured", slog.String("provider", s.Provider))
		return Result{Err: &Error{Kind: KindAuthMissing, Provider: s.Provider}}
	}

	if len(pool) == 0 {
		logger.Warn("quiz skipped: no summaries available", slog.String("provider", s.Provider))
		return Result{Err: &Error{Kind: KindEmptyInput, Provider: s.Provider}}
	}

	sampleSize := s.SampleSize
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	language := s.Language
	if language == "" {
		language = DefaultLanguage
	}

	sample := Sample(pool, sampleSize, s.Rand)
	prompt := BuildPrompt(sample, language)

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	logger.Info("generating quiz",
		slog.String("provider", s.Provider),
		slog.Int("sampled", len(sample)),
		slog.Int("pool_size", len(pool)))

	start := time.Now()
	raw, err := s.Generator.Generate(ctx, prompt)
	metrics.RecordQuizDuration(time.Since(start))
	if err != nil {
		qe := classify(err, s.Provider)
		logger.Warn("quiz generation failed",
			slog.String("provider", s.Provider),
			slog.String("kind", qe.Kind.String()),
			slog.Int("status_code", qe.StatusCode),
			slog.String("error", logging.SanitizeError(err)))
		return Result{Err: qe}
	}

	fragment := StripFences(raw)
	if fragment == "" {
		return Result{Err: &Error{
			Kind:     KindMalformedResponse,
			Provider: s.Provider,
			Err:      errors.New("model returned no text"),
		}}
	}

	cards, err := CountQuestionCards(fragment)
	if err != nil {
		logger.Warn("failed to inspect quiz html", slog.Any("error", err))
	}
	metrics.RecordQuizQuestionCards(cards)
	if cards != QuestionCount {
		logger.Warn("quiz has unexpected number of questions",
			slog.Int("question_cards", cards),
			slog.Int("expected", QuestionCount))
	}

	logger.Info("quiz generated",
		slog.String("provider", s.Provider),
		slog.Int("question_cards", cards),
		slog.Int("html_length", len(fragment)),
		slog.Duration("duration", time.Since(start)))

	return Result{HTML: fragment, Questions: cards}
}

// classify extracts the *Error from err. Anything unclassified, such as an
// open circuit breaker or a cancelled context, counts as a network failure.
func classify(err error, provider string) *Error {
	var qe *Error
	if errors.As(err, &qe) {
		return qe
	}
	return &Error{Kind: KindNetwork, Provider: provider, Err: err}
}
