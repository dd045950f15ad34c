// Package limiter defines interfaces and implementations for fixed-window attempt limiting.
package limiter

import (
	"context"
	"crypto/sha256"
	"time"

	"github.com/and161185/sitecms/internal/model"
)

// Defaults applied when a constructor receives a non-positive value.
const (
	DefaultMax    = 10
	DefaultWindow = time.Minute
)

// Limiter counts attempts per identifier inside a fixed window.
type Limiter interface {
	// Check records one attempt and reports whether it is allowed together
	// with the end of the current window.
	Check(ctx context.Context, identifier string) (model.Decision, error)
}

// Option configures a limiter backend.
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

func normalize(max int, window time.Duration) (int, time.Duration) {
	if max <= 0 {
		max = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return max, window
}

// HashIdentifier returns a stable hash for an identifier to avoid storing raw addresses.
func HashIdentifier(id string) []byte {
	h := sha256.Sum256([]byte(id))
	return h[:]
}
