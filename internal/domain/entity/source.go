package entity

import (
	"fmt"
	"strings"
)

// Source is one news feed shown as a card on the digest page.
// The slice order of a source list is the card order.
type Source struct {
	Name    string `yaml:"name"`
	FeedURL string `yaml:"url"`
}

// Validate checks that the source has a display name and a usable feed URL.
func (s Source) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Message: "source name is required"}
	}
	if err := ValidateURL(s.FeedURL); err != nil {
		return fmt.Errorf("source %q: %w", s.Name, err)
	}
	return nil
}

// DefaultSources returns the built-in source list in display order.
// A fresh slice is returned on every call so callers cannot mutate the defaults.
func DefaultSources() []Source {
	return []Source{
		{Name: "BBC News", FeedURL: "http://feeds.bbci.co.uk/news/world/rss.xml"},
		{Name: "CNN", FeedURL: "http://rss.cnn.com/rss/edition.rss"},
		{Name: "FOX News", FeedURL: "http://feeds.foxnews.com/foxnews/latest"},
		{Name: "Wall Street Journal", FeedURL: "https://feeds.a.dj.com/rss/RSSWorldNews.xml"},
		{Name: "Al Jazeera", FeedURL: "https://www.aljazeera.com/xml/rss/all.xml"},
		{Name: "ABC News", FeedURL: "https://abcnews.go.com/abcnews/topstories"},
	}
}

// ValidateSources validates every source and rejects duplicate names,
// since the name is the card heading.
func ValidateSources(sources []Source) error {
	if len(sources) == 0 {
		return &ValidationError{Field: "sources", Message: "at least one source is required"}
	}
	seen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Name]; dup {
			return &ValidationError{Field: "name", Message: fmt.Sprintf("duplicate source name %q", s.Name)}
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
