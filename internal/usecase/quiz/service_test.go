package quiz_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"news-digest/internal/domain/entity"
	"news-digest/internal/observability/logging"
	"news-digest/internal/usecase/quiz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	configured bool
	response   string
	err        error
	calls      int
	prompts    []string
}

func (g *stubGenerator) Configured() bool { return g.configured }

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	return g.response, g.err
}

func makePool(n int) []entity.NormalizedSummary {
	pool := make([]entity.NormalizedSummary, n)
	for i := range pool {
		pool[i] = entity.NormalizedSummary{
			Source:  fmt.Sprintf("Source %d", i%3),
			Title:   fmt.Sprintf("Title %d", i),
			Link:    fmt.Sprintf("https://example.com/%d", i),
			Summary: fmt.Sprintf("Summary %d", i),
		}
	}
	return pool
}

func questionCards(n int) string {
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, `<div class="question-card"><p class="question-text">%d. Q?</p><ul class="options"><li>A</li></ul><details><summary>Answer</summary><p class="explanation">A</p></details></div>`, i+1)
	}
	return b.String()
}

func newService(gen quiz.Generator) *quiz.Service {
	s := quiz.NewService(gen, "gemini")
	s.Rand = rand.New(rand.NewPCG(1, 2))
	return s
}

func TestGenerate_MissingKey_NoCall(t *testing.T) {
	gen := &stubGenerator{configured: false}

	res := newService(gen).Generate(context.Background(), makePool(5))

	require.NotNil(t, res.Err)
	assert.Equal(t, quiz.KindAuthMissing, res.Err.Kind)
	assert.Equal(t, 0, gen.calls)
	assert.Contains(t, res.Fragment(), "API")
}

func TestGenerate_NilGenerator(t *testing.T) {
	res := quiz.NewService(nil, "gemini").Generate(context.Background(), makePool(5))

	require.NotNil(t, res.Err)
	assert.Equal(t, quiz.KindAuthMissing, res.Err.Kind)
}

func TestGenerate_MissingKeyCheckedBeforeEmptyPool(t *testing.T) {
	res := newService(&stubGenerator{}).Generate(context.Background(), nil)

	require.NotNil(t, res.Err)
	assert.Equal(t, quiz.KindAuthMissing, res.Err.Kind)
}

func TestGenerate_EmptyPool_NoCall(t *testing.T) {
	gen := &stubGenerator{configured: true}

	res := newService(gen).Generate(context.Background(), nil)

	require.NotNil(t, res.Err)
	assert.Equal(t, quiz.KindEmptyInput, res.Err.Kind)
	assert.Equal(t, 0, gen.calls)
}

func TestGenerate_Success_StripsFences(t *testing.T) {
	body := questionCards(5)
	gen := &stubGenerator{configured: true, response: "```html\n" + body + "\n```"}

	res := newService(gen).Generate(context.Background(), makePool(12))

	require.True(t, res.OK())
	assert.Equal(t, body, res.HTML)
	assert.Equal(t, body, res.Fragment())
	assert.Equal(t, 5, res.Questions)
	assert.Equal(t, "success", res.Outcome())
	assert.Equal(t, 1, gen.calls)
}

func TestGenerate_PromptHoldsAtMostEightEntries(t *testing.T) {
	gen := &stubGenerator{configured: true, response: questionCards(5)}

	newService(gen).Generate(context.Background(), makePool(30))

	require.Len(t, gen.prompts, 1)
	assert.Equal(t, quiz.DefaultSampleSize, strings.Count(gen.prompts[0], "\nSource: "))
	assert.Contains(t, gen.prompts[0], quiz.DefaultLanguage)
}

func TestGenerate_UnexpectedQuestionCountIsKept(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		cards int
	}{
		{name: "three cards", html: questionCards(3), cards: 3},
		{name: "unclosed tags", html: `<div class="question-card"><p>1. Q<div class="question-card"><ul><li>A`, cards: 2},
		{name: "plain text", html: "Sorry, I cannot help with that.", cards: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{configured: true, response: tt.html}

			res := newService(gen).Generate(context.Background(), makePool(3))

			require.True(t, res.OK())
			assert.Equal(t, tt.html, res.HTML)
			assert.Equal(t, tt.cards, res.Questions)
		})
	}
}

func TestGenerate_EmptyResponseIsMalformed(t *testing.T) {
	gen := &stubGenerator{configured: true, response: "```html\n```"}

	res := newService(gen).Generate(context.Background(), makePool(3))

	require.NotNil(t, res.Err)
	assert.Equal(t, quiz.KindMalformedResponse, res.Err.Kind)
}

func TestGenerate_ClassifiesGeneratorErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind quiz.Kind
	}{
		{
			name:     "upstream status",
			err:      &quiz.Error{Kind: quiz.KindUpstreamStatus, Provider: "gemini", StatusCode: 500, Body: "boom"},
			wantKind: quiz.KindUpstreamStatus,
		},
		{
			name:     "wrapped malformed",
			err:      fmt.Errorf("max retry attempts (1) exceeded: %w", &quiz.Error{Kind: quiz.KindMalformedResponse}),
			wantKind: quiz.KindMalformedResponse,
		},
		{
			name:     "unclassified",
			err:      errors.New("circuit breaker is open"),
			wantKind: quiz.KindNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{configured: true, err: tt.err}

			res := newService(gen).Generate(context.Background(), makePool(3))

			require.NotNil(t, res.Err)
			assert.Equal(t, tt.wantKind, res.Err.Kind)
			assert.Equal(t, tt.wantKind.String(), res.Outcome())
			assert.Equal(t, 1, gen.calls)
		})
	}
}

func TestGenerate_LogsCarryRunID(t *testing.T) {
	var buf bytes.Buffer
	ctx, _ := logging.WithRunID(context.Background(), logging.New(&buf, "info", "json"))
	gen := &stubGenerator{configured: true, err: errors.New("connection reset")}

	newService(gen).Generate(ctx, makePool(3))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Contains(t, line, `"run_id":"`+logging.RunID(ctx)+`"`)
	}
}
