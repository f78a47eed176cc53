package quizgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"news-digest/internal/observability/logging"

	"github.com/google/uuid"
)

// Claude defaults.
const (
	DefaultClaudeModel = string(anthropic.ModelClaudeSonnet4_5_20250929)
	claudeMaxTokens    = 4096
)

// Claude generates quizzes with Anthropic's messages API.
type Claude struct {
	client anthropic.Client
	apiKey string
	model  string
	call   resilientCall
}

// NewClaude creates a Claude generator. SDK retries are disabled; retries
// follow the shared retry policy instead.
func NewClaude(cfg Config) *Claude {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(cfg.httpClient()),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultClaudeModel
	}

	return &Claude{
		client: anthropic.NewClient(opts...),
		apiKey: cfg.APIKey,
		model:  model,
		call:   newResilientCall(ProviderClaude, cfg.MaxAttempts),
	}
}

// Configured reports whether an API key is set.
func (c *Claude) Configured() bool {
	return c.apiKey != ""
}

// Generate sends prompt as a single user message and returns the first text block.
func (c *Claude) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", authMissing(ProviderClaude)
	}
	return c.call.do(ctx, func() (string, error) {
		return c.doGenerate(ctx, prompt)
	})
}

func (c *Claude) doGenerate(ctx context.Context, prompt string) (string, error) {
	requestID := uuid.New().String()

	logging.FromContext(ctx).Info("calling claude",
		slog.String("request_id", requestID),
		slog.String("model", c.model),
		slog.Int("prompt_length", len(prompt)))

	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: claudeMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	duration := time.Since(start)

	if err != nil {
		logging.FromContext(ctx).Error("claude request failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", logging.SanitizeError(err)))
		return "", classifyClaudeError(err)
	}

	if len(message.Content) == 0 {
		return "", malformedError(ProviderClaude, errors.New("response has no content"))
	}
	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", malformedError(ProviderClaude, errors.New("first content block is not text"))
	}

	logging.FromContext(ctx).Info("claude call completed",
		slog.String("request_id", requestID),
		slog.Int("response_length", len(textBlock.Text)),
		slog.Duration("duration", duration))

	return textBlock.Text, nil
}

func classifyClaudeError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return statusError(ProviderClaude, apiErr.StatusCode, apiErr.RawJSON())
	}
	if isTransportError(err) {
		return networkError(ProviderClaude, err)
	}
	return malformedError(ProviderClaude, fmt.Errorf("decode response: %w", err))
}
