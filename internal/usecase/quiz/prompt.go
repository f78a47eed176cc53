package quiz

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"news-digest/internal/domain/entity"
)

// QuestionCount is the number of questions requested from the model.
const QuestionCount = 5

const promptTemplate = `You are an English reading teacher preparing a daily news quiz.
Based on the news summaries below, write exactly %d multiple-choice reading-comprehension questions.
Write the questions, options and explanations in %s.
Output raw HTML fragments only. Do not use markdown, code fences, or <html>, <head>, <body> tags.
Use exactly this structure for every question:
<div class="question-card">
  <p class="question-text">1. Question text</p>
  <ul class="options">
    <li>A. ...</li>
    <li>B. ...</li>
    <li>C. ...</li>
    <li>D. ...</li>
  </ul>
  <details>
    <summary>Show answer</summary>
    <p class="explanation">Answer: B. Short explanation citing the news.</p>
  </details>
</div>

News summaries:
`

// Sample picks min(len(pool), n) entries uniformly at random without
// replacement. rng may be nil to use the global source.
func Sample(pool []entity.NormalizedSummary, n int, rng *rand.Rand) []entity.NormalizedSummary {
	k := min(len(pool), n)
	if k <= 0 {
		return nil
	}

	var perm []int
	if rng != nil {
		perm = rng.Perm(len(pool))
	} else {
		perm = rand.Perm(len(pool))
	}

	out := make([]entity.NormalizedSummary, k)
	for i := range k {
		out[i] = pool[perm[i]]
	}
	return out
}

// BuildPrompt renders the instruction template followed by one labelled block per entry.
func BuildPrompt(entries []entity.NormalizedSummary, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, promptTemplate, QuestionCount, language)
	for _, e := range entries {
		fmt.Fprintf(&b, "\nSource: %s\nTitle: %s\nSummary: %s\n", e.Source, e.Title, e.Summary)
	}
	return b.String()
}
