// Package fetch implements the feed fetching stage of the digest: it fetches
// every configured source, keeps the first entries of each, and normalizes
// them for rendering and for the quiz prompt.
package fetch

import "errors"

// Sentinel errors for the fetch stage.
var (
	// ErrFeedFetchFailed indicates that the feed could not be retrieved
	// (network failure, non-2xx status, timeout).
	ErrFeedFetchFailed = errors.New("failed to fetch feed from source")

	// ErrInvalidFeedFormat indicates that the response was not RSS or Atom.
	ErrInvalidFeedFormat = errors.New("invalid feed format")
)
