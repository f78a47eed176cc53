package retry

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func TestWithBackoff_SingleAttemptDoesNotRetry(t *testing.T) {
	attempts := 0
	want := &HTTPError{StatusCode: 500, Body: "boom"}

	err := WithBackoff(context.Background(), fastConfig(1), func() error {
		attempts++
		return want
	})

	assert.Equal(t, 1, attempts)
	assert.Same(t, want, err)
}

func TestWithBackoff_SuccessAfterRetry(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 503}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithBackoff_MaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	want := &HTTPError{StatusCode: 502}
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return want
	})

	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, want)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
}

func TestWithBackoff_NonRetryableError(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return &HTTPError{StatusCode: 400}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	cfg := fastConfig(3)
	cfg.InitialDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithBackoff(ctx, cfg, func() error {
		return &HTTPError{StatusCode: 500}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline", err: fmt.Errorf("wrap: %w", context.DeadlineExceeded), want: false},
		{name: "conn refused", err: syscall.ECONNREFUSED, want: true},
		{name: "conn reset", err: fmt.Errorf("read: %w", syscall.ECONNRESET), want: true},
		{name: "500", err: &HTTPError{StatusCode: 500}, want: true},
		{name: "429", err: &HTTPError{StatusCode: 429}, want: true},
		{name: "408", err: &HTTPError{StatusCode: 408}, want: true},
		{name: "404", err: &HTTPError{StatusCode: 404}, want: false},
		{name: "plain", err: errors.New("parse failure"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestConfigs_ClampAttempts(t *testing.T) {
	assert.Equal(t, 1, FeedFetchConfig(0).MaxAttempts)
	assert.Equal(t, 3, FeedFetchConfig(3).MaxAttempts)
	assert.Equal(t, 1, QuizAPIConfig(-2).MaxAttempts)
}

func TestConfig_Delay(t *testing.T) {
	cfg := Config{InitialDelay: 10 * time.Millisecond, MaxDelay: 30 * time.Millisecond, Multiplier: 2}

	assert.Equal(t, 10*time.Millisecond, cfg.delay(1))
	assert.Equal(t, 20*time.Millisecond, cfg.delay(2))
	assert.Equal(t, 30*time.Millisecond, cfg.delay(3), "capped at MaxDelay")
	assert.Equal(t, 30*time.Millisecond, cfg.delay(8))
}

func TestConfigs_Names(t *testing.T) {
	assert.Equal(t, "feed-fetch", FeedFetchConfig(1).Name)
	assert.Equal(t, "quiz-api", QuizAPIConfig(1).Name)
}

func TestHTTPError_Error(t *testing.T) {
	err := &HTTPError{StatusCode: 503, Body: "unavailable"}
	assert.Equal(t, "HTTP 503: unavailable", err.Error())
}

func TestAddJitter(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		got := addJitter(base, 0.5)
		assert.GreaterOrEqual(t, got, base)
		assert.LessOrEqual(t, got, base+50*time.Millisecond)
	}
	assert.Equal(t, base, addJitter(base, 0))
}
