package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/and161185/sitecms/internal/crypto"
)

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG stores sessions in the admin_sessions table, keyed by the token digest.
type PG struct {
	pool pgxQuerier
	ttl  time.Duration
	now  func() time.Time
}

// NewPG constructs a PostgreSQL session store. *pgxpool.Pool satisfies pool.
func NewPG(pool pgxQuerier, ttl time.Duration, opts ...Option) *PG {
	o := buildOptions(opts)
	return &PG{pool: pool, ttl: normalizeDuration(ttl), now: o.now}
}

func (s *PG) Create(ctx context.Context, token string) error {
	const q = `
INSERT INTO admin_sessions (token_hash, created_at, last_active)
VALUES ($1, $2, $2)`
	_, err := s.pool.Exec(ctx, q, crypto.TokenKey(token), s.now())
	return err
}

func (s *PG) Validate(ctx context.Context, token string) (bool, error) {
	key := crypto.TokenKey(token)
	now := s.now()

	const sel = `SELECT created_at FROM admin_sessions WHERE token_hash=$1`
	var createdAt time.Time
	if err := s.pool.QueryRow(ctx, sel, key).Scan(&createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if now.Sub(createdAt) > s.ttl {
		const del = `DELETE FROM admin_sessions WHERE token_hash=$1`
		if _, err := s.pool.Exec(ctx, del, key); err != nil {
			return false, err
		}
		return false, nil
	}

	const upd = `UPDATE admin_sessions SET last_active=$2 WHERE token_hash=$1`
	if _, err := s.pool.Exec(ctx, upd, key, now); err != nil {
		return false, err
	}
	return true, nil
}

func (s *PG) Delete(ctx context.Context, token string) error {
	const q = `DELETE FROM admin_sessions WHERE token_hash=$1`
	_, err := s.pool.Exec(ctx, q, crypto.TokenKey(token))
	return err
}

func (s *PG) CleanupExpired(ctx context.Context) (int, error) {
	const q = `DELETE FROM admin_sessions WHERE created_at < $1`
	tag, err := s.pool.Exec(ctx, q, s.now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
