// Package service contains the application services: admin authentication,
// site content and contact submissions.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/sitecms/internal/crypto"
	"github.com/and161185/sitecms/internal/errs"
	"github.com/and161185/sitecms/internal/limiter"
	"github.com/and161185/sitecms/internal/session"
)

// AuthService defines admin login and session operations.
type AuthService interface {
	// Login applies rate limiting per client and exchanges the admin secret for a session token.
	Login(ctx context.Context, password, clientID string) (token string, err error)
	// Logout revokes token; revoking an unknown token is not an error.
	Logout(ctx context.Context, token string) error
	// IsAuthenticated reports whether token names a live session.
	IsAuthenticated(ctx context.Context, token string) bool
}

type AuthServiceImpl struct {
	secret   pkgcrypto.Secret
	sessions session.Store
	lim      limiter.Limiter
	log      *zap.Logger
	verbose  bool
}

// AuthOption configures AuthServiceImpl.
type AuthOption func(*AuthServiceImpl)

// WithAuthLogger sets the logger.
func WithAuthLogger(l *zap.Logger) AuthOption {
	return func(s *AuthServiceImpl) {
		if l != nil {
			s.log = l
		}
	}
}

// WithVerboseAuthLogs enables per-attempt logging.
func WithVerboseAuthLogs(on bool) AuthOption {
	return func(s *AuthServiceImpl) { s.verbose = on }
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(secret pkgcrypto.Secret, sessions session.Store, lim limiter.Limiter, opts ...AuthOption) *AuthServiceImpl {
	s := &AuthServiceImpl{secret: secret, sessions: sessions, lim: lim, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login checks the limiter before the secret, so failed attempts count too.
func (s *AuthServiceImpl) Login(ctx context.Context, password, clientID string) (string, error) {
	d, err := s.lim.Check(ctx, clientID)
	if err != nil {
		return "", fmt.Errorf("%w: rate limiter: %w", errs.ErrStorage, err)
	}
	if !d.Allowed {
		if s.verbose {
			s.log.Warn("login rate limited", zap.String("client", clientID), zap.Time("reset_at", d.ResetAt))
		}
		return "", &errs.RateLimitError{ResetAt: d.ResetAt}
	}

	if !s.secret.Matches(password) {
		if s.verbose {
			s.log.Warn("login failed", zap.String("client", clientID))
		}
		return "", errs.ErrInvalidCredential
	}

	token, err := pkgcrypto.NewSessionToken()
	if err != nil {
		return "", err
	}
	if err := s.sessions.Create(ctx, token); err != nil {
		return "", fmt.Errorf("%w: create session: %w", errs.ErrStorage, err)
	}
	if s.verbose {
		s.log.Info("login succeeded", zap.String("client", clientID))
	}
	return token, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("%w: delete session: %w", errs.ErrStorage, err)
	}
	return nil
}

// IsAuthenticated never returns an error: backend failures are logged and read as "no session".
func (s *AuthServiceImpl) IsAuthenticated(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	ok, err := s.sessions.Validate(ctx, token)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Error("session validate failed", zap.Error(err))
		}
		return false
	}
	return ok
}
