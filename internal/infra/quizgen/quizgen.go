// Package quizgen provides quiz.Generator implementations for Gemini, OpenAI
// and Claude. Each client makes one call per attempt through a circuit breaker
// and the retry policy, and reports failures as *quiz.Error.
package quizgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"news-digest/internal/observability/logging"
	"news-digest/internal/resilience/circuitbreaker"
	"news-digest/internal/resilience/retry"
	"news-digest/internal/usecase/quiz"
)

// Provider names.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// Config holds the settings shared by all providers.
type Config struct {
	Provider string
	APIKey   string
	// Model overrides the provider default.
	Model string
	// BaseURL overrides the provider endpoint.
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	// HTTPClient is used when set; otherwise one is built from Timeout.
	HTTPClient *http.Client
}

// New returns the generator for cfg.Provider.
func New(cfg Config) (quiz.Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		return NewGemini(cfg), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case ProviderClaude:
		return NewClaude(cfg), nil
	default:
		return nil, fmt.Errorf("unknown quiz provider %q", cfg.Provider)
	}
}

// KeyEnvVar returns the environment variable holding the key for provider.
func KeyEnvVar(provider string) string {
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderClaude:
		return "ANTHROPIC_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = quiz.DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// resilientCall runs fn through cb and the retry policy.
type resilientCall struct {
	provider       string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

func newResilientCall(provider string, maxAttempts int) resilientCall {
	return resilientCall{
		provider:       provider,
		circuitBreaker: circuitbreaker.New(circuitbreaker.QuizAPIConfig(provider + "-api")),
		retryConfig:    retry.QuizAPIConfig(maxAttempts),
	}
}

func (r resilientCall) do(ctx context.Context, fn func() (string, error)) (string, error) {
	var out string
	err := retry.WithBackoff(ctx, r.retryConfig, func() error {
		res, err := circuitbreaker.Execute(r.circuitBreaker, fn)
		if err != nil {
			if circuitbreaker.Rejected(err) {
				logging.FromContext(ctx).Warn("quiz api circuit breaker open, request rejected",
					slog.String("service", r.circuitBreaker.Name()),
					slog.String("state", r.circuitBreaker.State().String()))
				return &quiz.Error{Kind: quiz.KindNetwork, Provider: r.provider, Err: err}
			}
			return err
		}
		out = res
		return nil
	})
	return out, err
}

func authMissing(provider string) error {
	return &quiz.Error{
		Kind:     quiz.KindAuthMissing,
		Provider: provider,
		Err:      fmt.Errorf("%s is not set", KeyEnvVar(provider)),
	}
}

func networkError(provider string, err error) error {
	return &quiz.Error{Kind: quiz.KindNetwork, Provider: provider, Err: err}
}

func statusError(provider string, status int, body string) error {
	return &quiz.Error{
		Kind:       quiz.KindUpstreamStatus,
		Provider:   provider,
		StatusCode: status,
		Body:       body,
		Err:        &retry.HTTPError{StatusCode: status, Body: body},
	}
}

func malformedError(provider string, err error) error {
	return &quiz.Error{Kind: quiz.KindMalformedResponse, Provider: provider, Err: err}
}

// isTransportError reports whether err happened before any HTTP response was read.
func isTransportError(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
