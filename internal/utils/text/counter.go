// Package text provides rune-aware string helpers shared by the feed and quiz stages.
package text

// CountRunes counts the Unicode characters (runes) in text.
//
//	CountRunes("hello")     // 5
//	CountRunes("新聞晨報")  // 4
func CountRunes(text string) int {
	return len([]rune(text))
}

// TruncateRunes returns the first n runes of text, or text unchanged when it is
// shorter. Multi-byte characters are never split. No word boundary is respected.
func TruncateRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
