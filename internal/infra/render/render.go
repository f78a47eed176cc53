// Package render builds the digest HTML page with html/template.
//
// Feed text (titles, links, dates, summaries) is inserted verbatim unless the
// Renderer is created with EscapeFeedText. Quiz HTML is always inserted verbatim.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"time"

	"news-digest/internal/domain/entity"
	"news-digest/pkg/security/csp"
)

// TimestampLayout is the layout of the "last updated" line.
const TimestampLayout = "2006-01-02 15:04:05"

// UnavailablePlaceholder is shown in the card of a source that could not be fetched.
const UnavailablePlaceholder = "暫時無法讀取內容。"

//go:embed page.html.tmpl
var pageTemplate string

// Page is the input to Render.
type Page struct {
	// Timestamp is the already formatted update time.
	Timestamp string
	Sources   []entity.SourceResult
	// Quiz is the quiz fragment; ignored when ShowQuiz is false.
	Quiz     string
	ShowQuiz bool
}

// Renderer renders Pages. It is safe for concurrent use.
type Renderer struct {
	tmpl           *template.Template
	escapeFeedText bool
	csp            string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithEscapeFeedText makes feed titles, links, dates and summaries auto-escaped.
func WithEscapeFeedText(escape bool) Option {
	return func(r *Renderer) {
		r.escapeFeedText = escape
	}
}

// WithContentSecurityPolicy adds a Content-Security-Policy meta tag carrying
// policy to the page head. An empty policy adds nothing.
func WithContentSecurityPolicy(policy string) Option {
	return func(r *Renderer) {
		r.csp = policy
	}
}

// New parses the page template.
func New(opts ...Option) (*Renderer, error) {
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	r := &Renderer{tmpl: tmpl}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// FormatTimestamp formats t in loc using TimestampLayout.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(TimestampLayout)
}

type cardView struct {
	Name        string
	Unavailable bool
	Items       []itemView
}

// itemView fields are any so they can hold either plain strings (escaped by
// the template) or trusted template types (inserted verbatim).
type itemView struct {
	Title     any
	Link      any
	Published any
	Summary   any
}

type pageView struct {
	CSPHeader   string
	CSP         string
	Timestamp   string
	Placeholder string
	Cards       []cardView
	ShowQuiz    bool
	Quiz        template.HTML
}

// Render returns the complete HTML document for p.
func (r *Renderer) Render(p Page) (string, error) {
	view := pageView{
		CSPHeader:   csp.MetaHTTPEquiv,
		CSP:         r.csp,
		Timestamp:   p.Timestamp,
		Placeholder: UnavailablePlaceholder,
		Cards:       make([]cardView, 0, len(p.Sources)),
		ShowQuiz:    p.ShowQuiz,
		Quiz:        template.HTML(p.Quiz), //nolint:gosec // generated quiz markup is embedded as-is
	}

	for _, src := range p.Sources {
		card := cardView{Name: src.Source.Name, Unavailable: !src.Available()}
		if src.Available() {
			card.Items = make([]itemView, 0, len(src.Entries))
			for _, e := range src.Entries {
				card.Items = append(card.Items, r.item(e))
			}
		}
		view.Cards = append(view.Cards, card)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return buf.String(), nil
}

func (r *Renderer) item(e entity.NormalizedSummary) itemView {
	if r.escapeFeedText {
		return itemView{Title: e.Title, Link: e.Link, Published: e.Published, Summary: e.Summary}
	}
	//nolint:gosec // feed text is trusted unless EscapeFeedText is set
	return itemView{
		Title:     template.HTML(e.Title),
		Link:      template.URL(e.Link),
		Published: template.HTML(e.Published),
		Summary:   template.HTML(e.Summary),
	}
}
