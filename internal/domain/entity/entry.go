package entity

// FeedEntry is one article as returned by the feed parser.
// Summary and Published are empty when the feed omits them.
type FeedEntry struct {
	Title     string
	Link      string
	Summary   string
	Published string
}

// NormalizedSummary is a FeedEntry made safe for embedding in the page and in
// the quiz prompt. Summary has already been sanitized and truncated.
type NormalizedSummary struct {
	Source    string
	Title     string
	Link      string
	Published string
	Summary   string
}

// SourceResult is the outcome of fetching one source.
// A non-nil Err means the source is rendered as unavailable.
type SourceResult struct {
	Source  Source
	Entries []NormalizedSummary
	Err     error
}

// Available reports whether the source was fetched successfully.
func (r SourceResult) Available() bool {
	return r.Err == nil
}
