// Package scraper fetches and parses RSS/Atom feeds.
// It uses the gofeed library with retry, circuit breaker, and optional rate limiting.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"news-digest/internal/observability/logging"
	"news-digest/internal/resilience/circuitbreaker"
	"news-digest/internal/resilience/retry"
	"news-digest/internal/usecase/fetch"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

// UserAgent is sent with every feed request.
const UserAgent = "NewsDigestBot"

// RSSFetcher implements fetch.FeedFetcher using gofeed.
type RSSFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	limiter        *rate.Limiter
}

// Option configures an RSSFetcher.
type Option func(*RSSFetcher)

// WithMaxAttempts sets how many times a feed request is tried. 1 disables retry.
func WithMaxAttempts(n int) Option {
	return func(f *RSSFetcher) {
		f.retryConfig = retry.FeedFetchConfig(n)
	}
}

// WithRateLimit limits feed requests to rps per second. rps <= 0 means unlimited.
func WithRateLimit(rps float64) Option {
	return func(f *RSSFetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithCircuitBreaker replaces the default feed circuit breaker.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(f *RSSFetcher) {
		f.circuitBreaker = cb
	}
}

// NewRSSFetcher creates an RSSFetcher using client for HTTP.
// By default a feed is tried once and requests are not rate limited.
func NewRSSFetcher(client *http.Client, opts ...Option) *RSSFetcher {
	f := &RSSFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves and parses the feed at feedURL, returning its items in feed order.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]fetch.FeedItem, error) {
	var items []fetch.FeedItem

	err := retry.WithBackoff(ctx, f.retryConfig, func() error {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
		}

		result, err := circuitbreaker.Execute(f.circuitBreaker, func() ([]fetch.FeedItem, error) {
			return f.doFetch(ctx, feedURL)
		})
		if err != nil {
			if circuitbreaker.Rejected(err) {
				logging.FromContext(ctx).Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", f.circuitBreaker.Name()),
					slog.String("url", feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}

		items = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// doFetch performs one feed request without retry or circuit breaker.
func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]fetch.FeedItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = UserAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, fmt.Errorf("%w: %w", fetch.ErrFeedFetchFailed,
				&retry.HTTPError{StatusCode: httpErr.StatusCode, Body: httpErr.Status})
		}
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			return nil, fmt.Errorf("%w: %w", fetch.ErrInvalidFeedFormat, err)
		}
		return nil, fmt.Errorf("%w: %w", fetch.ErrFeedFetchFailed, err)
	}

	items := make([]fetch.FeedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		// Description holds the RSS description or Atom summary; Content is the fallback.
		summary := it.Description
		if summary == "" {
			summary = it.Content
		}

		items = append(items, fetch.FeedItem{
			Title:     it.Title,
			Link:      it.Link,
			Summary:   summary,
			Published: it.Published,
		})
	}

	return items, nil
}
