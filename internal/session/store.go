// Package session stores admin sessions keyed by opaque tokens.
//
// Expiry is fixed from creation: Validate refreshes LastActive but never
// extends the session past CreatedAt + duration.
package session

import (
	"context"
	"time"
)

// DefaultDuration matches the cookie lifetime used by the admin panel (7 days).
const DefaultDuration = 7 * 24 * time.Hour

// Store is the swappable session backend.
type Store interface {
	// Create records a new session for token.
	Create(ctx context.Context, token string) error
	// Validate reports whether token names a live session, deleting it when expired.
	Validate(ctx context.Context, token string) (bool, error)
	// Delete removes token; missing tokens are not an error.
	Delete(ctx context.Context, token string) error
	// CleanupExpired removes every expired session and returns how many were removed.
	CleanupExpired(ctx context.Context) (int, error)
}

// Option configures a session backend.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func normalizeDuration(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultDuration
	}
	return d
}
