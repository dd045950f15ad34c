// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
	"time"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates no content document has been persisted yet.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing, invalid or expired session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredential indicates the submitted admin secret did not match.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrRateLimited indicates too many attempts inside the current window.
	ErrRateLimited = errors.New("rate limited")

	// ErrTooLarge indicates the serialized content exceeds the configured cap.
	ErrTooLarge = errors.New("content too large")

	// ErrStorage indicates an I/O failure in a persistence backend.
	ErrStorage = errors.New("storage error")

	// ErrMalformedInput indicates an unparseable or incomplete request.
	ErrMalformedInput = errors.New("malformed input")
)

// RateLimitError carries the end of the current window so callers can back off.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited until %s", e.ResetAt.UTC().Format(time.RFC3339))
}

// Unwrap lets errors.Is(err, ErrRateLimited) match.
func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// RetryAfter returns the whole seconds left until ResetAt, never negative.
func (e *RateLimitError) RetryAfter(now time.Time) int {
	d := e.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

// TooLargeError reports the canonical size of a rejected document.
type TooLargeError struct {
	Size  int
	Limit int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("content too large: %d bytes (maximum %d)", e.Size, e.Limit)
}

func (e *TooLargeError) Unwrap() error { return ErrTooLarge }
