package fetch

import (
	"context"
	"errors"
	"time"

	"news-digest/internal/domain/entity"
	"news-digest/internal/resilience/retry"

	"golang.org/x/sync/errgroup"
)

// Diagnostic statuses.
const (
	StatusOK         = "OK"
	StatusEmpty      = "EMPTY"
	StatusHTTPError  = "HTTP_ERROR"
	StatusParseError = "PARSE_ERROR"
	StatusTimeout    = "TIMEOUT"
	StatusError      = "ERROR"
)

// Diagnostic is the health of one feed source.
type Diagnostic struct {
	Name       string        `json:"name"`
	URL        string        `json:"url"`
	Status     string        `json:"status"`
	HTTPCode   int           `json:"http_code,omitempty"`
	ItemCount  int           `json:"item_count"`
	LatestDate string        `json:"latest_date,omitempty"`
	Error      string        `json:"error,omitempty"`
	Latency    time.Duration `json:"latency_ns"`
}

// Healthy reports whether the feed returned at least one entry.
func (d Diagnostic) Healthy() bool { return d.Status == StatusOK }

// Diagnose fetches every source once and classifies the outcome. Unlike
// FetchAll it reports the full item count and does not normalize entries.
func (s *Service) Diagnose(ctx context.Context, sources []entity.Source) []Diagnostic {
	out := make([]Diagnostic, len(sources))

	var eg errgroup.Group
	eg.SetLimit(max(s.Parallelism, 1))
	for i, src := range sources {
		eg.Go(func() error {
			out[i] = s.diagnose(ctx, src)
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

func (s *Service) diagnose(ctx context.Context, src entity.Source) Diagnostic {
	d := Diagnostic{Name: src.Name, URL: src.FeedURL}

	start := time.Now()
	items, err := s.FeedFetcher.Fetch(ctx, src.FeedURL)
	d.Latency = time.Since(start)

	if err != nil {
		d.Status, d.HTTPCode = classify(err)
		d.Error = err.Error()
		return d
	}

	d.ItemCount = len(items)
	if len(items) == 0 {
		d.Status = StatusEmpty
		return d
	}
	d.LatestDate = items[0].Published
	d.Status = StatusOK
	return d
}

func classify(err error) (string, int) {
	var httpErr *retry.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return StatusHTTPError, httpErr.StatusCode
	case errors.Is(err, ErrInvalidFeedFormat):
		return StatusParseError, 0
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout, 0
	default:
		return StatusError, 0
	}
}
