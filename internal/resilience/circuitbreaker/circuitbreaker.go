// Package circuitbreaker wraps github.com/sony/gobreaker for the digest's
// outbound calls: the feed requests and the quiz request.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"news-digest/internal/observability/metrics"

	"github.com/sony/gobreaker"
)

// Config describes when a breaker trips and how long it stays open.
type Config struct {
	Name string
	// HalfOpenProbes is how many calls may pass while half-open.
	HalfOpenProbes uint32
	// Window clears the closed-state counts periodically. 0 never clears.
	Window time.Duration
	// OpenFor is how long the breaker rejects calls before probing again.
	OpenFor time.Duration
	// MinCalls is the number of calls in the window before the ratio is considered.
	MinCalls uint32
	// TripRatio is the failure ratio (0..1] that opens the breaker.
	TripRatio float64
}

// FeedFetchConfig is shared by all feed requests. MinCalls exceeds the
// default source count so a single run cannot trip it.
func FeedFetchConfig() Config {
	return Config{
		Name:           "feed-fetch",
		HalfOpenProbes: 5,
		Window:         time.Hour,
		OpenFor:        10 * time.Minute,
		MinCalls:       12,
		TripRatio:      0.9,
	}
}

// QuizAPIConfig guards the quiz generation endpoint. There is one call per
// run, so the breaker opens only after repeated failed runs in scheduled mode.
func QuizAPIConfig(name string) Config {
	return Config{
		Name:           name,
		HalfOpenProbes: 1,
		Window:         6 * time.Hour,
		OpenFor:        30 * time.Minute,
		MinCalls:       3,
		TripRatio:      1.0,
	}
}

// CircuitBreaker is a named gobreaker.CircuitBreaker whose state changes are
// logged and exported as the digest_circuit_breaker_state gauge.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a closed breaker from cfg.
func New(cfg Config) *CircuitBreaker {
	metrics.RecordCircuitBreakerState(cfg.Name, int(gobreaker.StateClosed))

	return &CircuitBreaker{
		name: cfg.Name,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:          cfg.Name,
			MaxRequests:   cfg.HalfOpenProbes,
			Interval:      cfg.Window,
			Timeout:       cfg.OpenFor,
			ReadyToTrip:   tripper(cfg.MinCalls, cfg.TripRatio),
			OnStateChange: onStateChange,
		}),
	}
}

func tripper(minCalls uint32, ratio float64) func(gobreaker.Counts) bool {
	return func(c gobreaker.Counts) bool {
		if c.Requests < minCalls {
			return false
		}
		return float64(c.TotalFailures)/float64(c.Requests) >= ratio
	}
}

func onStateChange(name string, from, to gobreaker.State) {
	slog.Warn("circuit breaker state changed",
		slog.String("circuit", name),
		slog.String("from", from.String()),
		slog.String("to", to.String()))
	metrics.RecordCircuitBreakerState(name, int(to))
}

// Execute runs fn through cb. A rejected call returns an error for which
// Rejected is true, and fn is not called.
func Execute[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.breaker.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

// Rejected reports whether err means the breaker refused the call.
func Rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// State returns the current state.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the breaker name used in logs and metrics.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}
