// Package notify forwards contact form submissions to the site owner.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/sitecms/internal/model"
)

// Notifier delivers a contact submission.
type Notifier interface {
	NotifyContact(ctx context.Context, req model.ContactRequest) error
}

// Log writes submissions to the structured log. Used when no mail provider is configured.
type Log struct{ log *zap.Logger }

// NewLog constructs a log notifier.
func NewLog(l *zap.Logger) *Log {
	if l == nil {
		l = zap.NewNop()
	}
	return &Log{log: l}
}

func (n *Log) NotifyContact(_ context.Context, r model.ContactRequest) error {
	n.log.Info("contact form submission",
		zap.String("first_name", r.FirstName),
		zap.String("last_name", r.LastName),
		zap.String("email", r.Email),
		zap.String("phone", r.Phone),
		zap.String("english_level", r.EnglishLevel),
		zap.String("goals", r.Goals),
		zap.String("availability", r.Availability),
		zap.Bool("newsletter", r.Newsletter),
	)
	return nil
}

// Subject is the email subject line for a submission.
func Subject(r model.ContactRequest) string {
	return fmt.Sprintf("New consultation request from %s %s", r.FirstName, r.LastName)
}

// TextBody renders a plain-text summary of the submission.
func TextBody(r model.ContactRequest) string {
	var b strings.Builder
	line := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		}
	}
	line("Name", strings.TrimSpace(r.FirstName+" "+r.LastName))
	line("Email", r.Email)
	line("Phone", r.Phone)
	line("English level", r.EnglishLevel)
	line("Goals", r.Goals)
	line("Availability", r.Availability)
	if r.Newsletter {
		line("Newsletter", "yes")
	} else {
		line("Newsletter", "no")
	}
	return b.String()
}
