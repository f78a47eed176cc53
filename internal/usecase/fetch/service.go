package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"news-digest/internal/domain/entity"
	"news-digest/internal/observability/logging"
	"news-digest/internal/observability/metrics"

	"golang.org/x/sync/errgroup"
)

// MaxEntriesPerSource is how many entries are kept from each feed, in feed order.
const MaxEntriesPerSource = 5

// FeedFetcher fetches and parses the RSS/Atom feed at url.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]FeedItem, error)
}

// FeedItem is a single parsed feed entry.
type FeedItem = entity.FeedEntry

// Service fetches all sources of a digest run.
type Service struct {
	FeedFetcher FeedFetcher
	Parallelism int
}

// NewService creates a Service. parallelism below 1 is treated as 1 (sequential).
func NewService(fetcher FeedFetcher, parallelism int) *Service {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Service{FeedFetcher: fetcher, Parallelism: parallelism}
}

// FetchAll fetches every source and returns one SourceResult per source in
// declaration order. It never fails: a source that cannot be fetched is logged
// and reported through its SourceResult.Err.
func (s *Service) FetchAll(ctx context.Context, sources []entity.Source) []entity.SourceResult {
	results := make([]entity.SourceResult, len(sources))

	limit := s.Parallelism
	if limit < 1 {
		limit = 1
	}

	var eg errgroup.Group
	eg.SetLimit(limit)
	for i, src := range sources {
		eg.Go(func() error {
			results[i] = s.fetchSource(ctx, src)
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

func (s *Service) fetchSource(ctx context.Context, src entity.Source) entity.SourceResult {
	logger := logging.FromContext(ctx)
	start := time.Now()

	logger.Info("fetching source",
		slog.String("source", src.Name),
		slog.String("feed_url", src.FeedURL))

	items, err := s.FeedFetcher.Fetch(ctx, src.FeedURL)
	metrics.RecordFeedFetchDuration(src.Name, time.Since(start))
	if err != nil {
		logger.Warn("failed to fetch feed",
			slog.String("source", src.Name),
			slog.String("feed_url", src.FeedURL),
			slog.Any("error", err))
		metrics.RecordFeedFetch(src.Name, false, 0)
		return entity.SourceResult{Source: src, Err: fmt.Errorf("fetch %s: %w", src.Name, err)}
	}

	if len(items) > MaxEntriesPerSource {
		items = items[:MaxEntriesPerSource]
	}

	entries := make([]entity.NormalizedSummary, 0, len(items))
	for _, it := range items {
		entries = append(entries, Normalize(src.Name, it))
	}

	metrics.RecordFeedFetch(src.Name, true, len(entries))
	logger.Info("source fetched",
		slog.String("source", src.Name),
		slog.Int("entries", len(entries)),
		slog.Duration("duration", time.Since(start)))

	return entity.SourceResult{Source: src, Entries: entries}
}
