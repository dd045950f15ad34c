package client

import (
	"errors"
	"fmt"
)

// ErrNoSession is returned by calls that need a session cookie when none is set.
var ErrNoSession = errors.New("no session (login required)")

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
	// RetryAfter echoes the Retry-After header of a 429 response, in seconds.
	RetryAfter string
}

func (e *HTTPError) Error() string {
	if e.RetryAfter != "" {
		return fmt.Sprintf("HTTP %d: %s (retry after %ss)", e.StatusCode, e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}
