package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultCleanupInterval is how often the janitor sweeps expired sessions.
const DefaultCleanupInterval = time.Hour

// Janitor periodically removes expired sessions, independent of request traffic.
type Janitor struct {
	store    Store
	interval time.Duration
	log      *zap.Logger
}

// NewJanitor constructs a janitor for store.
func NewJanitor(store Store, interval time.Duration, log *zap.Logger) *Janitor {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Janitor{store: store, interval: interval, log: log}
}

// RunOnce performs a single sweep and returns the number of removed sessions.
func (j *Janitor) RunOnce(ctx context.Context) int {
	ctxSweep, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := j.store.CleanupExpired(ctxSweep)
	if err != nil {
		j.log.Warn("session cleanup failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		j.log.Info("expired sessions removed", zap.Int("count", n))
	}
	return n
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	j.RunOnce(ctx)

	t := time.NewTicker(j.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.RunOnce(ctx)
		}
	}
}
