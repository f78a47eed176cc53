package quizgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"news-digest/internal/observability/logging"

	"github.com/google/uuid"
)

// Gemini defaults.
const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-2.5-flash"
)

const maxResponseBytes = 4 << 20

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Gemini calls the Gemini generateContent REST endpoint.
type Gemini struct {
	client  *http.Client
	apiKey  string
	model   string
	baseURL string
	call    resilientCall
}

// NewGemini creates a Gemini generator.
func NewGemini(cfg Config) *Gemini {
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	return &Gemini{
		client:  cfg.httpClient(),
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		call:    newResilientCall(ProviderGemini, cfg.MaxAttempts),
	}
}

// Configured reports whether an API key is set.
func (g *Gemini) Configured() bool {
	return g.apiKey != ""
}

// Generate sends prompt and returns candidates[0].content.parts[0].text.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.Configured() {
		return "", authMissing(ProviderGemini)
	}
	return g.call.do(ctx, func() (string, error) {
		return g.doGenerate(ctx, prompt)
	})
}

func (g *Gemini) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?%s",
		g.baseURL, url.PathEscape(g.model), url.Values{"key": {g.apiKey}}.Encode())
}

func (g *Gemini) doGenerate(ctx context.Context, prompt string) (string, error) {
	requestID := uuid.New().String()

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", malformedError(ProviderGemini, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", networkError(ProviderGemini, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	logging.FromContext(ctx).Info("calling gemini",
		slog.String("request_id", requestID),
		slog.String("model", g.model),
		slog.Int("prompt_length", len(prompt)))

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		// the request URL carries the key; drop it from the error
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		logging.FromContext(ctx).Error("gemini request failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", logging.SanitizeError(err)))
		return "", networkError(ProviderGemini, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", networkError(ProviderGemini, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.FromContext(ctx).Error("gemini returned error status",
			slog.String("request_id", requestID),
			slog.Int("status_code", resp.StatusCode),
			slog.Duration("duration", time.Since(start)))
		return "", statusError(ProviderGemini, resp.StatusCode, string(body))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", malformedError(ProviderGemini, fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Candidates) == 0 {
		return "", malformedError(ProviderGemini, errors.New("response has no candidates"))
	}
	parts := parsed.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", malformedError(ProviderGemini, errors.New("first candidate has no parts"))
	}

	logging.FromContext(ctx).Info("gemini call completed",
		slog.String("request_id", requestID),
		slog.Int("response_length", len(parts[0].Text)),
		slog.Duration("duration", time.Since(start)))

	return parts[0].Text, nil
}
