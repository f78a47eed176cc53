// Package quiz implements the optional quiz stage of the digest: it samples
// normalized summaries, builds the prompt, calls a Generator once, and turns
// the outcome into an HTML fragment for the page.
package quiz

import (
	"fmt"
)

// Kind classifies why a quiz could not be produced.
type Kind int

const (
	// KindAuthMissing means no API key is configured for the active provider.
	KindAuthMissing Kind = iota + 1
	// KindEmptyInput means there were no summaries to build a prompt from.
	KindEmptyInput
	// KindNetwork means the request never produced an HTTP response.
	KindNetwork
	// KindUpstreamStatus means the provider answered with a non-2xx status.
	KindUpstreamStatus
	// KindMalformedResponse means a 2xx response did not have the expected shape.
	KindMalformedResponse
)

// String returns the metric/log label for k.
func (k Kind) String() string {
	switch k {
	case KindAuthMissing:
		return "auth_missing"
	case KindEmptyInput:
		return "empty_input"
	case KindNetwork:
		return "network"
	case KindUpstreamStatus:
		return "upstream_status"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Error is a classified quiz failure. StatusCode and Body are set only for
// KindUpstreamStatus; Body is the raw response body.
type Error struct {
	Kind       Kind
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUpstreamStatus:
		return fmt.Sprintf("%s: %s: HTTP %d: %s", e.Provider, e.Kind, e.StatusCode, e.Body)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
