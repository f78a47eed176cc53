package quiz

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripFences removes markdown code fence markers the model may wrap the HTML in.
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```html", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// CountQuestionCards parses fragment leniently and counts .question-card elements.
// Malformed markup is tolerated the way a browser would tolerate it.
func CountQuestionCards(fragment string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return 0, fmt.Errorf("parse quiz html: %w", err)
	}
	return doc.Find(".question-card").Length(), nil
}
