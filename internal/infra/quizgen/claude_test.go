package quizgen_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"news-digest/internal/infra/quizgen"
	"news-digest/internal/usecase/quiz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claudeServer(t *testing.T, calls *atomic.Int32, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClaude_Generate_Success(t *testing.T) {
	var calls atomic.Int32
	server := claudeServer(t, &calls, http.StatusOK,
		`{"id":"msg_1","type":"message","role":"assistant","model":"claude","content":[{"type":"text","text":"<div class=\"question-card\"></div>"}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`)

	gen := quizgen.NewClaude(quizgen.Config{APIKey: "test-key", BaseURL: server.URL})
	out, err := gen.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, `<div class="question-card"></div>`, out)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClaude_Generate_ServerError(t *testing.T) {
	var calls atomic.Int32
	server := claudeServer(t, &calls, http.StatusInternalServerError,
		`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`)

	gen := quizgen.NewClaude(quizgen.Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := gen.Generate(context.Background(), "prompt")

	qe := requireQuizError(t, err)
	assert.Equal(t, quiz.KindUpstreamStatus, qe.Kind)
	assert.Equal(t, 500, qe.StatusCode)
	assert.Contains(t, qe.Body, "overloaded")
	assert.Equal(t, int32(1), calls.Load(), "sdk retries must be disabled")
}

func TestClaude_Generate_EmptyContent(t *testing.T) {
	var calls atomic.Int32
	server := claudeServer(t, &calls, http.StatusOK,
		`{"id":"msg_1","type":"message","role":"assistant","model":"claude","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`)

	gen := quizgen.NewClaude(quizgen.Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := gen.Generate(context.Background(), "prompt")

	qe := requireQuizError(t, err)
	assert.Equal(t, quiz.KindMalformedResponse, qe.Kind)
}
