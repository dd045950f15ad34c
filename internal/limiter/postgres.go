package limiter

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/and161185/sitecms/internal/model"
)

// PG is a PostgreSQL-backed fixed-window limiter shared by every instance using the database.
type PG struct {
	pool   pgxQuerier
	max    int
	window time.Duration
	now    func() time.Time
}

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPGWithQuerier constructs a PostgreSQL-backed limiter over any querier
// (*pgxpool.Pool in production, a fake in tests).
func NewPGWithQuerier(q pgxQuerier, max int, window time.Duration, opts ...Option) *PG {
	max, window = normalize(max, window)
	o := buildOptions(opts)
	return &PG{pool: q, max: max, window: window, now: o.now}
}

// Check records an attempt and returns the post-increment decision.
// Attempts keep counting past max; the window end does not move.
func (l *PG) Check(ctx context.Context, identifier string) (model.Decision, error) {
	now := l.now()
	key := HashIdentifier(identifier)

	const purge = `DELETE FROM auth_rate_limits WHERE reset_at < $1`
	if _, err := l.pool.Exec(ctx, purge, now); err != nil {
		return model.Decision{}, err
	}

	const q = `
INSERT INTO auth_rate_limits (identifier_hash, attempts, reset_at)
VALUES ($1, 1, $2)
ON CONFLICT (identifier_hash) DO UPDATE
SET
  attempts = CASE WHEN auth_rate_limits.reset_at < $3 THEN 1 ELSE auth_rate_limits.attempts + 1 END,
  reset_at = CASE WHEN auth_rate_limits.reset_at < $3 THEN EXCLUDED.reset_at ELSE auth_rate_limits.reset_at END
RETURNING attempts, reset_at`
	var attempts int
	var resetAt time.Time
	if err := l.pool.QueryRow(ctx, q, key, now.Add(l.window), now).Scan(&attempts, &resetAt); err != nil {
		return model.Decision{}, err
	}
	return model.Decision{Allowed: attempts <= l.max, ResetAt: resetAt}, nil
}
