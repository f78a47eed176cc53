package quiz

import (
	"fmt"
	"html"

	"news-digest/internal/observability/logging"
)

// Result is the outcome of the quiz stage: either generated HTML or an Error.
type Result struct {
	// HTML is the generated quiz with code fences removed. Empty on failure.
	HTML string
	// Questions is the number of .question-card elements found in HTML.
	Questions int
	// Err is set when no quiz was produced.
	Err *Error
}

// OK reports whether a quiz was generated.
func (r Result) OK() bool {
	return r.Err == nil
}

// Outcome returns "success" or the failure kind label.
func (r Result) Outcome() string {
	if r.Err == nil {
		return "success"
	}
	return r.Err.Kind.String()
}

// Fragment renders the result as an HTML fragment for the quiz section.
// Generated HTML is returned verbatim; error details are escaped.
func (r Result) Fragment() string {
	if r.Err == nil {
		return r.HTML
	}

	e := r.Err
	switch e.Kind {
	case KindAuthMissing:
		return fmt.Sprintf(`<div class="quiz-error"><p>⚠️ 未設定 AI API 金鑰 (%s)，略過測驗生成。</p></div>`,
			html.EscapeString(e.Provider))
	case KindEmptyInput:
		return `<div class="quiz-error"><p>⚠️ 今日沒有可用的新聞摘要，無法生成測驗。</p></div>`
	case KindUpstreamStatus:
		return fmt.Sprintf(`<div class="quiz-error"><p>⚠️ AI 服務回應錯誤 (HTTP %d)</p><pre>%s</pre></div>`,
			e.StatusCode, html.EscapeString(logging.SanitizeString(e.Body)))
	case KindMalformedResponse:
		return fmt.Sprintf(`<div class="quiz-error"><p>⚠️ AI 回應格式無法解析。</p><pre>%s</pre></div>`,
			html.EscapeString(errText(e.Err)))
	default:
		return fmt.Sprintf(`<div class="quiz-error"><p>⚠️ 無法連線至 AI 服務。</p><pre>%s</pre></div>`,
			html.EscapeString(errText(e.Err)))
	}
}

func errText(err error) string {
	return logging.SanitizeError(err)
}
