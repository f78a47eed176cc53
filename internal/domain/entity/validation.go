package entity

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrInvalidConfig is matched by every ValidationError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError reports a bad configuration value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

const maxURLLength = 2048

// ValidateURL accepts absolute http and https URLs with a host. It performs no
// network lookups: feed URLs are operator configuration, not user input.
func ValidateURL(rawURL string) error {
	invalid := func(msg string) error { return &ValidationError{Field: "url", Message: msg} }

	switch {
	case rawURL == "":
		return invalid("is required")
	case len(rawURL) > maxURLLength:
		return invalid(fmt.Sprintf("must not exceed %d characters", maxURLLength))
	}

	u, err := url.Parse(rawURL)
	switch {
	case err != nil:
		return invalid(fmt.Sprintf("cannot be parsed: %v", err))
	case u.Scheme != "http" && u.Scheme != "https":
		return invalid("scheme must be http or https")
	case u.Host == "":
		return invalid("host is required")
	}
	return nil
}
