package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"

	"github.com/and161185/sitecms/internal/model"
)

// ErrInvalidConfig is returned when the Postmark notifier is missing settings.
var ErrInvalidConfig = errors.New("notify: server token, sender and recipient are required")

type emailSender interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkConfig configures the Postmark notifier.
type PostmarkConfig struct {
	ServerToken string
	From        string
	To          string
}

// Postmark sends each submission as a transactional email.
type Postmark struct {
	client emailSender
	from   string
	to     string
}

// NewPostmark constructs a Postmark-backed notifier.
func NewPostmark(cfg PostmarkConfig) (*Postmark, error) {
	if cfg.ServerToken == "" || cfg.From == "" || cfg.To == "" {
		return nil, ErrInvalidConfig
	}
	return &Postmark{client: postmark.NewClient(cfg.ServerToken, ""), from: cfg.From, to: cfg.To}, nil
}

func (p *Postmark) NotifyContact(ctx context.Context, r model.ContactRequest) error {
	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:     p.from,
		To:       p.to,
		ReplyTo:  r.Email,
		Subject:  Subject(r),
		TextBody: TextBody(r),
		Tag:      "contact-form",
	})
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	return nil
}
