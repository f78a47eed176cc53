package quizgen_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"news-digest/internal/infra/quizgen"
	"news-digest/internal/usecase/quiz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiServer(t *testing.T, calls *atomic.Int32, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func requireQuizError(t *testing.T, err error) *quiz.Error {
	t.Helper()
	var qe *quiz.Error
	require.True(t, errors.As(err, &qe), "expected *quiz.Error, got %T: %v", err, err)
	return qe
}

func TestGemini_Generate_Success(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"<div class=\"question-card\">Q</div>"}]}}]}`)
	}))
	defer server.Close()

	gen := quizgen.NewGemini(quizgen.Config{APIKey: "test-key", BaseURL: server.URL})
	out, err := gen.Generate(context.Background(), "hello prompt")

	require.NoError(t, err)
	assert.Equal(t, `<div class="question-card">Q</div>`, out)
	assert.Equal(t, "/models/"+quizgen.DefaultGeminiModel+":generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)

	contents := gotBody["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	assert.Equal(t, "hello prompt", parts[0].(map[string]any)["text"])
}

func TestGemini_Generate_MissingKey_NoRequest(t *testing.T) {
	var calls atomic.Int32
	server := geminiServer(t, &calls, http.StatusOK, `{}`)

	gen := quizgen.NewGemini(quizgen.Config{BaseURL: server.URL})
	assert.False(t, gen.Configured())

	_, err := gen.Generate(context.Background(), "prompt")

	qe := requireQuizError(t, err)
	assert.Equal(t, quiz.KindAuthMissing, qe.Kind)
	assert.Equal(t, int32(0), calls.Load())
}

func TestGemini_Generate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   quiz.Kind
		wantStatus int
	}{
		{name: "server error", status: 500, body: `{"error":{"message":"internal"}}`, wantKind: quiz.KindUpstreamStatus, wantStatus: 500},
		{name: "forbidden", status: 403, body: `{"error":{"message":"bad key"}}`, wantKind: quiz.KindUpstreamStatus, wantStatus: 403},
		{name: "no candidates", status: 200, body: `{"promptFeedback":{}}`, wantKind: quiz.KindMalformedResponse},
		{name: "no parts", status: 200, body: `{"candidates":[{"content":{"parts":[]}}]}`, wantKind: quiz.KindMalformedResponse},
		{name: "not json", status: 200, body: `<html>gateway</html>`, wantKind: quiz.KindMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := geminiServer(t, &calls, tt.status, tt.body)

			gen := quizgen.NewGemini(quizgen.Config{APIKey: "k", BaseURL: server.URL})
			_, err := gen.Generate(context.Background(), "prompt")

			qe := requireQuizError(t, err)
			assert.Equal(t, tt.wantKind, qe.Kind)
			assert.Equal(t, tt.wantStatus, qe.StatusCode)
			if tt.wantKind == quiz.KindUpstreamStatus {
				assert.Equal(t, tt.body, qe.Body)
			}
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestGemini_Generate_HTTP500_FragmentShowsStatus(t *testing.T) {
	var calls atomic.Int32
	server := geminiServer(t, &calls, 500, `{"error":"boom"}`)

	svc := quiz.NewService(quizgen.NewGemini(quizgen.Config{APIKey: "k", BaseURL: server.URL}), quizgen.ProviderGemini)
	res := svc.Generate(context.Background(), []quizSummary{{Source: "BBC", Title: "t", Summary: "s"}})

	require.NotNil(t, res.Err)
	assert.Contains(t, res.Fragment(), "500")
}

func TestGemini_Generate_NoCandidates_FragmentIsMalformed(t *testing.T) {
	var calls atomic.Int32
	server := geminiServer(t, &calls, 200, `{}`)

	svc := quiz.NewService(quizgen.NewGemini(quizgen.Config{APIKey: "k", BaseURL: server.URL}), quizgen.ProviderGemini)
	res := svc.Generate(context.Background(), []quizSummary{{Source: "BBC", Title: "t", Summary: "s"}})

	require.NotNil(t, res.Err)
	assert.Equal(t, quiz.KindMalformedResponse, res.Err.Kind)
	assert.Contains(t, res.Fragment(), "no candidates")
}

func TestGemini_Generate_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	gen := quizgen.NewGemini(quizgen.Config{APIKey: "secret-key", BaseURL: url, Timeout: time.Second})
	_, err := gen.Generate(context.Background(), "prompt")

	qe := requireQuizError(t, err)
	assert.Equal(t, quiz.KindNetwork, qe.Kind)
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestGemini_Generate_RetriesServerErrorsWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	defer server.Close()

	gen := quizgen.NewGemini(quizgen.Config{APIKey: "k", BaseURL: server.URL, MaxAttempts: 2})
	out, err := gen.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), calls.Load())
}
