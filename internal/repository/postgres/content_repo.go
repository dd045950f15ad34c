package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/sitecms/internal/errs"
	"github.com/and161185/sitecms/internal/repository"
)

// BackupBase names snapshots produced by this backend.
const BackupBase = "content.json"

// ContentRepo implements repository.ContentRepository using PostgreSQL.
type ContentRepo struct {
	db  *DB
	now func() time.Time
}

// NewContentRepo constructs a content repository.
func NewContentRepo(db *DB) *ContentRepo { return &ContentRepo{db: db, now: time.Now} }

// Load returns the stored document.
func (r *ContentRepo) Load(ctx context.Context) ([]byte, error) {
	const q = `SELECT body FROM site_content WHERE id=1`
	var body []byte
	if err := r.db.Pool.QueryRow(ctx, q).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("%w: load content: %w", errs.ErrStorage, err)
	}
	return body, nil
}

// Replace swaps the document and, when asked, archives the previous body in the same transaction.
func (r *ContentRepo) Replace(ctx context.Context, doc []byte, backup bool) (snap *repository.Snapshot, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", errs.ErrStorage, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			snap = nil
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = fmt.Errorf("%w: commit: %w", errs.ErrStorage, e)
			snap = nil
		}
	}()

	now := r.now()

	if backup {
		const sel = `SELECT body FROM site_content WHERE id=1 FOR UPDATE`
		const ins = `INSERT INTO site_content_backups (id, body, created_at) VALUES ($1,$2,$3)`

		var prev []byte
		scanErr := tx.QueryRow(ctx, sel).Scan(&prev)
		switch {
		case scanErr == nil:
			id, e := uuid.NewV4()
			if e != nil {
				return nil, e
			}
			if _, err = tx.Exec(ctx, ins, id, prev, now); err != nil {
				return nil, fmt.Errorf("%w: backup: %w", errs.ErrStorage, err)
			}
			snap = &repository.Snapshot{
				Name:      repository.BackupName(BackupBase, now),
				CreatedAt: now,
				Body:      prev,
			}
		case errors.Is(scanErr, pgx.ErrNoRows):
		default:
			return nil, fmt.Errorf("%w: read previous: %w", errs.ErrStorage, scanErr)
		}
	}

	const up = `
INSERT INTO site_content (id, body, updated_at) VALUES (1,$1,$2)
ON CONFLICT (id) DO UPDATE SET body=EXCLUDED.body, updated_at=EXCLUDED.updated_at`
	if _, err = tx.Exec(ctx, up, doc, now); err != nil {
		return nil, fmt.Errorf("%w: write content: %w", errs.ErrStorage, err)
	}
	return snap, nil
}
