package quizgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"news-digest/internal/observability/logging"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAI generates quizzes with the chat completions API.
type OpenAI struct {
	client *openai.Client
	apiKey string
	model  string
	call   resilientCall
}

// NewOpenAI creates an OpenAI generator.
func NewOpenAI(cfg Config) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = cfg.httpClient()

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		apiKey: cfg.APIKey,
		model:  model,
		call:   newResilientCall(ProviderOpenAI, cfg.MaxAttempts),
	}
}

// Configured reports whether an API key is set.
func (o *OpenAI) Configured() bool {
	return o.apiKey != ""
}

// Generate sends prompt as a single user message and returns choices[0].message.content.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	if !o.Configured() {
		return "", authMissing(ProviderOpenAI)
	}
	return o.call.do(ctx, func() (string, error) {
		return o.doGenerate(ctx, prompt)
	})
}

func (o *OpenAI) doGenerate(ctx context.Context, prompt string) (string, error) {
	requestID := uuid.New().String()

	logging.FromContext(ctx).Info("calling openai",
		slog.String("request_id", requestID),
		slog.String("model", o.model),
		slog.Int("prompt_length", len(prompt)))

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	duration := time.Since(start)

	if err != nil {
		logging.FromContext(ctx).Error("openai request failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", logging.SanitizeError(err)))
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", malformedError(ProviderOpenAI, errors.New("response has no choices"))
	}

	content := resp.Choices[0].Message.Content
	logging.FromContext(ctx).Info("openai call completed",
		slog.String("request_id", requestID),
		slog.Int("response_length", len(content)),
		slog.Duration("duration", duration))

	return content, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(ProviderOpenAI, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return statusError(ProviderOpenAI, reqErr.HTTPStatusCode, reqErr.Error())
	}

	if isTransportError(err) {
		return networkError(ProviderOpenAI, err)
	}
	return malformedError(ProviderOpenAI, fmt.Errorf("decode response: %w", err))
}
