// Package fsrepo stores the site document as a JSON file on local disk.
package fsrepo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/and161185/sitecms/internal/errs"
	"github.com/and161185/sitecms/internal/repository"
)

// DefaultPath is where the document lives when no path is configured.
const DefaultPath = "data/content.json"

// ContentRepo implements repository.ContentRepository on a single file.
// Writes go to a temp file in the same directory and are renamed into place.
type ContentRepo struct {
	path string
	now  func() time.Time
}

// Option configures ContentRepo.
type Option func(*ContentRepo)

// WithClock overrides time.Now for backup naming.
func WithClock(now func() time.Time) Option {
	return func(r *ContentRepo) {
		if now != nil {
			r.now = now
		}
	}
}

// NewContentRepo constructs a file-backed repository at path.
func NewContentRepo(path string, opts ...Option) *ContentRepo {
	if path == "" {
		path = DefaultPath
	}
	r := &ContentRepo{path: path, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the document path.
func (r *ContentRepo) Path() string { return r.path }

func (r *ContentRepo) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("%w: read %s: %w", errs.ErrStorage, r.path, err)
	}
	return b, nil
}

func (r *ContentRepo) Replace(ctx context.Context, doc []byte, backup bool) (*repository.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", errs.ErrStorage, dir, err)
	}

	var snap *repository.Snapshot
	if backup {
		prev, err := os.ReadFile(r.path)
		switch {
		case err == nil:
			snap, err = r.writeBackup(prev)
			if err != nil {
				return nil, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("%w: read %s: %w", errs.ErrStorage, r.path, err)
		}
	}

	if err := writeAtomic(r.path, doc); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", errs.ErrStorage, r.path, err)
	}
	return snap, nil
}

func (r *ContentRepo) writeBackup(prev []byte) (*repository.Snapshot, error) {
	at := r.now()
	name := repository.BackupName(r.path, at)
	// two writes inside one millisecond must not clobber the earlier snapshot
	for {
		_, err := os.Stat(name)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: backup %s: %w", errs.ErrStorage, name, err)
		}
		at = at.Add(time.Millisecond)
		name = repository.BackupName(r.path, at)
	}
	if err := writeAtomic(name, prev); err != nil {
		return nil, fmt.Errorf("%w: backup %s: %w", errs.ErrStorage, name, err)
	}
	return &repository.Snapshot{Name: filepath.Base(name), CreatedAt: at, Body: prev}, nil
}

// backups lists snapshot paths next to the document, oldest first.
func (r *ContentRepo) backups() ([]string, error) {
	matches, err := filepath.Glob(r.path + ".backup.*")
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func writeAtomic(path string, data []byte) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
