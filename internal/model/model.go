// Package model defines domain entities used by services and repositories.
package model

import (
	"time"
)

// Session is the server-side record behind an admin session token.
type Session struct {
	Token      string
	CreatedAt  time.Time
	LastActive time.Time
}

// Expired reports whether the session outlived ttl as of now.
// Expiry is measured from CreatedAt; LastActive does not extend it.
func (s Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CreatedAt) > ttl
}

// Decision is the outcome of a rate limiter check.
type Decision struct {
	Allowed bool
	ResetAt time.Time // end of the current window
}

// ContactRequest is a contact form submission.
type ContactRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	EnglishLevel string `json:"englishLevel,omitempty"`
	Goals        string `json:"goals,omitempty"`
	Availability string `json:"availability,omitempty"`
	Newsletter   bool   `json:"newsletter,omitempty"`
}
