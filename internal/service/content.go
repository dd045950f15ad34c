package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/sitecms/internal/defaults"
	"github.com/and161185/sitecms/internal/errs"
	"github.com/and161185/sitecms/internal/model"
	"github.com/and161185/sitecms/internal/repository"
)

// DefaultMaxContentSize caps the serialized document at 1 MiB.
const DefaultMaxContentSize = 1 << 20

// Source tells where an effective document came from.
type Source string

const (
	SourceStored  Source = "stored"
	SourceDefault Source = "default"
)

// ContentService reads and writes the site document.
type ContentService interface {
	// Read returns the persisted document or errs.ErrNotFound.
	Read(ctx context.Context) (model.SiteContent, error)
	// Write replaces the document on behalf of the session holding token.
	Write(ctx context.Context, c model.SiteContent, token string) error
	// Reset replaces the document with the built-in defaults.
	Reset(ctx context.Context, token string) error
	// Effective returns the persisted document, or the defaults when there is none.
	Effective(ctx context.Context) (model.SiteContent, Source, error)
}

type ContentServiceImpl struct {
	repo    repository.ContentRepository
	auth    AuthService
	mirror  repository.BackupMirror
	log     *zap.Logger
	maxSize int
	backups bool
}

// ContentOption configures ContentServiceImpl.
type ContentOption func(*ContentServiceImpl)

// WithMaxContentSize sets the byte cap; non-positive keeps the default.
func WithMaxContentSize(n int) ContentOption {
	return func(s *ContentServiceImpl) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithBackups snapshots the previous document before every overwrite.
func WithBackups(on bool) ContentOption {
	return func(s *ContentServiceImpl) { s.backups = on }
}

// WithBackupMirror uploads every snapshot off-host as well.
func WithBackupMirror(m repository.BackupMirror) ContentOption {
	return func(s *ContentServiceImpl) { s.mirror = m }
}

// WithContentLogger sets the logger.
func WithContentLogger(l *zap.Logger) ContentOption {
	return func(s *ContentServiceImpl) {
		if l != nil {
			s.log = l
		}
	}
}

// NewContentService constructs ContentService.
func NewContentService(repo repository.ContentRepository, auth AuthService, opts ...ContentOption) *ContentServiceImpl {
	s := &ContentServiceImpl{repo: repo, auth: auth, log: zap.NewNop(), maxSize: DefaultMaxContentSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Canonical encodes c with two-space indentation and without HTML escaping.
func Canonical(c model.SiteContent) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (s *ContentServiceImpl) Read(ctx context.Context) (model.SiteContent, error) {
	raw, err := s.repo.Load(ctx)
	if err != nil {
		return model.SiteContent{}, err
	}
	var c model.SiteContent
	if err := json.Unmarshal(raw, &c); err != nil {
		return model.SiteContent{}, fmt.Errorf("%w: decode stored document: %w", errs.ErrStorage, err)
	}
	return c, nil
}

// Write checks the session first; nothing is touched when it fails.
func (s *ContentServiceImpl) Write(ctx context.Context, c model.SiteContent, token string) error {
	if !s.auth.IsAuthenticated(ctx, token) {
		return errs.ErrUnauthorized
	}

	doc, err := Canonical(c)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", errs.ErrMalformedInput, err)
	}
	if len(doc) > s.maxSize {
		return &errs.TooLargeError{Size: len(doc), Limit: s.maxSize}
	}
	if dups := c.DuplicateOrders(); len(dups) > 0 {
		s.log.Warn("duplicate order values in content", zap.Strings("sections", dups))
	}

	snap, err := s.repo.Replace(ctx, doc, s.backups)
	if err != nil {
		if !errors.Is(err, errs.ErrStorage) {
			err = fmt.Errorf("%w: %w", errs.ErrStorage, err)
		}
		return err
	}
	if snap != nil {
		s.log.Info("content backup created", zap.String("name", snap.Name), zap.Int("bytes", len(snap.Body)))
		if s.mirror != nil {
			if err := s.mirror.Put(ctx, *snap); err != nil {
				s.log.Warn("backup mirror failed", zap.String("name", snap.Name), zap.Error(err))
			}
		}
	}
	s.log.Info("content saved", zap.Int("bytes", len(doc)))
	return nil
}

func (s *ContentServiceImpl) Reset(ctx context.Context, token string) error {
	return s.Write(ctx, defaults.Default(), token)
}

// Effective falls back to the defaults on a missing or unreadable document
// so the public site always renders; the failure is logged.
func (s *ContentServiceImpl) Effective(ctx context.Context) (model.SiteContent, Source, error) {
	c, err := s.Read(ctx)
	switch {
	case err == nil:
		return c, SourceStored, nil
	case errors.Is(err, errs.ErrNotFound):
		return defaults.Default(), SourceDefault, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return model.SiteContent{}, "", err
	default:
		s.log.Error("content read failed, serving defaults", zap.Error(err))
		return defaults.Default(), SourceDefault, nil
	}
}
