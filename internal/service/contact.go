package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/sitecms/internal/errs"
	"github.com/and161185/sitecms/internal/limiter"
	"github.com/and161185/sitecms/internal/model"
	"github.com/and161185/sitecms/internal/notify"
)

// ContactService accepts contact form submissions.
type ContactService interface {
	// Submit validates req and forwards it; the returned message is shown to the visitor.
	Submit(ctx context.Context, req model.ContactRequest, clientID string) (string, error)
}

type ContactServiceImpl struct {
	notifier notify.Notifier
	lim      limiter.Limiter
	log      *zap.Logger
}

// NewContactService constructs ContactService. A nil limiter disables rate limiting.
func NewContactService(n notify.Notifier, lim limiter.Limiter, log *zap.Logger) *ContactServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContactServiceImpl{notifier: n, lim: lim, log: log}
}

// ContactLimitKey namespaces contact submissions in a shared limiter.
func ContactLimitKey(clientID string) string { return "contact-" + clientID }

func (s *ContactServiceImpl) Submit(ctx context.Context, req model.ContactRequest, clientID string) (string, error) {
	if s.lim != nil {
		d, err := s.lim.Check(ctx, ContactLimitKey(clientID))
		if err != nil {
			return "", fmt.Errorf("%w: rate limiter: %w", errs.ErrStorage, err)
		}
		if !d.Allowed {
			return "", &errs.RateLimitError{ResetAt: d.ResetAt}
		}
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		return "", fmt.Errorf("%w: please fill in all required fields", errs.ErrMalformedInput)
	}

	if err := s.notifier.NotifyContact(ctx, req); err != nil {
		s.log.Error("contact notification failed", zap.Error(err))
		return "", fmt.Errorf("notify: %w", err)
	}
	return fmt.Sprintf("Thank you %s! I've received your consultation request and will contact you within 24 hours to schedule your free trial lesson.", req.FirstName), nil
}
