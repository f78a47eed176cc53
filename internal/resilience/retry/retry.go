// Package retry retries transient failures with exponential backoff and jitter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"syscall"
	"time"

	"news-digest/internal/observability/logging"
)

// Config is a retry policy.
type Config struct {
	// Name identifies the operation in logs.
	Name string
	// MaxAttempts counts the first call. 1 disables retrying.
	MaxAttempts int
	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration
	// MaxDelay caps the wait, before jitter.
	MaxDelay time.Duration
	// Multiplier grows the wait after each failed attempt.
	Multiplier float64
	// JitterFraction adds up to this fraction of the wait at random (0..1).
	JitterFraction float64
}

// FeedFetchConfig is the policy for one feed request.
func FeedFetchConfig(maxAttempts int) Config {
	return Config{
		Name:           "feed-fetch",
		MaxAttempts:    max(maxAttempts, 1),
		InitialDelay:   time.Second,
		MaxDelay:       10 * time.Second,
		Multiplier:     2,
		JitterFraction: 0.1,
	}
}

// QuizAPIConfig is the policy for the quiz request. AI endpoints mostly fail
// on rate limits, so it starts with a longer wait.
func QuizAPIConfig(maxAttempts int) Config {
	return Config{
		Name:           "quiz-api",
		MaxAttempts:    max(maxAttempts, 1),
		InitialDelay:   2 * time.Second,
		MaxDelay:       10 * time.Second,
		Multiplier:     2,
		JitterFraction: 0.1,
	}
}

// delay returns the wait after the given failed attempt (1-based).
func (c Config) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt-1))
	if c.MaxDelay > 0 && d > float64(c.MaxDelay) {
		d = float64(c.MaxDelay)
	}
	return addJitter(time.Duration(d), c.JitterFraction)
}

// WithBackoff calls fn until it succeeds, fails with a non-retryable error, or
// cfg.MaxAttempts calls have been made. With a single attempt, or on a
// non-retryable error, fn's error is returned as is.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	attempts := max(cfg.MaxAttempts, 1)

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				logging.FromContext(ctx).Info("operation succeeded after retry",
					slog.String("operation", cfg.Name),
					slog.Int("attempt", attempt))
			}
			return nil
		}
		if attempts == 1 || !IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, err)
		}

		wait := cfg.delay(attempt)
		logging.FromContext(ctx).Warn("operation failed, retrying",
			slog.String("operation", cfg.Name),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", wait),
			slog.Any("error", err))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}
	}
}

var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:  true,
	http.StatusTooManyRequests: true,
}

var retryableErrno = []error{
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
	syscall.ETIMEDOUT,
	syscall.ENETUNREACH,
}

// IsRetryable reports whether err is a transient network failure or an HTTP
// status worth repeating (5xx, 408, 429). Context errors never are.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 && httpErr.StatusCode < 600 || retryableStatus[httpErr.StatusCode]
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	for _, errno := range retryableErrno {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

// HTTPError is a non-success HTTP response. Body holds the raw response body,
// or the status text when the body was not read.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	fraction = min(fraction, 1)
	if fraction <= 0 {
		return d
	}
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
