package fetch

import (
	"strings"

	"news-digest/internal/domain/entity"
	"news-digest/internal/utils/text"
)

// MaxSummaryRunes is the maximum summary length after sanitization.
const MaxSummaryRunes = 200

var angleBrackets = strings.NewReplacer("<", "[", ">", "]")

// Normalize converts a feed item into a NormalizedSummary for source.
// Angle brackets in the summary become square brackets so markup cannot leak
// into the page or the prompt, then the summary is cut to MaxSummaryRunes runes.
// Quotes and entities are left as they are.
func Normalize(source string, item FeedItem) entity.NormalizedSummary {
	return entity.NormalizedSummary{
		Source:    source,
		Title:     item.Title,
		Link:      item.Link,
		Published: item.Published,
		Summary:   text.TruncateRunes(Sanitize(item.Summary), MaxSummaryRunes),
	}
}

// Sanitize replaces every '<' with '[' and every '>' with ']'.
func Sanitize(s string) string {
	return angleBrackets.Replace(s)
}
