// Package digest runs the whole pipeline: fetch every source, optionally
// generate the quiz, render the page and write it.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"news-digest/internal/domain/entity"
	"news-digest/internal/infra/render"
	"news-digest/internal/observability/logging"
	"news-digest/internal/observability/metrics"
	"news-digest/internal/observability/tracing"
	"news-digest/internal/usecase/quiz"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Fetcher fetches all sources; it never fails.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []entity.Source) []entity.SourceResult
}

// QuizGenerator produces the quiz result from the fetched summaries.
type QuizGenerator interface {
	Generate(ctx context.Context, pool []entity.NormalizedSummary) quiz.Result
}

// Renderer turns a page into HTML.
type Renderer interface {
	Render(p render.Page) (string, error)
}

// Writer stores the rendered page.
type Writer interface {
	Write(content string) error
}

// RunStats summarizes one run.
type RunStats struct {
	Sources       int
	FailedSources int
	Entries       int
	QuizOutcome   string
	QuizQuestions int
	Duration      time.Duration
}

// Service wires the pipeline stages. Quiz may be nil to disable the quiz section.
type Service struct {
	Sources  []entity.Source
	Fetcher  Fetcher
	Quiz     QuizGenerator
	Renderer Renderer
	Writer   Writer
	Location *time.Location
	// Now is the clock used for the page timestamp; nil means time.Now.
	Now func() time.Time
}

// Run executes the pipeline once. Only render and write failures are returned;
// feed and quiz problems end up in the page.
func (s *Service) Run(ctx context.Context) (*RunStats, error) {
	start := time.Now()
	ctx, logger := logging.WithRunID(ctx, slog.Default())
	ctx, span := tracing.StartSpan(ctx, "digest.run", attribute.Int("sources", len(s.Sources)))
	defer span.End()

	stats := &RunStats{Sources: len(s.Sources), QuizOutcome: "disabled"}
	logger.Info("digest run started", slog.Int("sources", len(s.Sources)))

	timestamp := render.FormatTimestamp(s.now(), s.Location)

	fetchCtx, fetchSpan := tracing.StartSpan(ctx, "digest.fetch")
	results := s.Fetcher.FetchAll(fetchCtx, s.Sources)
	fetchSpan.End()

	pool := make([]entity.NormalizedSummary, 0, len(results)*5)
	for _, r := range results {
		if !r.Available() {
			stats.FailedSources++
			continue
		}
		stats.Entries += len(r.Entries)
		pool = append(pool, r.Entries...)
	}

	page := render.Page{Timestamp: timestamp, Sources: results}
	if s.Quiz != nil {
		res := s.Quiz.Generate(ctx, pool)
		page.Quiz = res.Fragment()
		page.ShowQuiz = true
		stats.QuizOutcome = res.Outcome()
		stats.QuizQuestions = res.Questions
	}

	_, renderSpan := tracing.StartSpan(ctx, "digest.render")
	html, err := s.Renderer.Render(page)
	tracing.RecordError(renderSpan, err)
	renderSpan.End()
	if err != nil {
		return s.fail(ctx, span, stats, start, fmt.Errorf("render page: %w", err))
	}

	_, writeSpan := tracing.StartSpan(ctx, "digest.write")
	err = s.Writer.Write(html)
	tracing.RecordError(writeSpan, err)
	writeSpan.End()
	if err != nil {
		return s.fail(ctx, span, stats, start, fmt.Errorf("write page: %w", err))
	}

	stats.Duration = time.Since(start)
	metrics.RecordRun(true, stats.Duration)
	logger.Info("digest run completed",
		slog.Int("sources", stats.Sources),
		slog.Int("failed_sources", stats.FailedSources),
		slog.Int("entries", stats.Entries),
		slog.String("quiz_outcome", stats.QuizOutcome),
		slog.Int("quiz_questions", stats.QuizQuestions),
		slog.Duration("duration", stats.Duration))

	return stats, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, stats *RunStats, start time.Time, err error) (*RunStats, error) {
	stats.Duration = time.Since(start)
	metrics.RecordRun(false, stats.Duration)
	tracing.RecordError(span, err)
	logging.FromContext(ctx).Error("digest run failed",
		slog.Duration("duration", stats.Duration),
		slog.String("error", logging.SanitizeError(err)))
	return stats, err
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
