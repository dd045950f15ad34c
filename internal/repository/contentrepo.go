// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"strconv"
	"time"
)

// Snapshot is a copy of the previous document preserved before an overwrite.
type Snapshot struct {
	// Name is "<basename>.backup.<unixMillis>".
	Name      string
	CreatedAt time.Time
	Body      []byte
}

// ContentRepository persists the single canonical site document.
type ContentRepository interface {
	// Load returns the stored bytes or errs.ErrNotFound.
	Load(ctx context.Context) ([]byte, error)
	// Replace atomically stores doc. When backup is set and a prior document
	// exists, its exact bytes are preserved first and returned as a Snapshot.
	Replace(ctx context.Context, doc []byte, backup bool) (*Snapshot, error)
}

// BackupMirror copies snapshots off-host.
type BackupMirror interface {
	Put(ctx context.Context, snap Snapshot) error
}

// BackupName formats a snapshot name for base at t.
func BackupName(base string, t time.Time) string {
	return base + ".backup." + strconv.FormatInt(t.UnixMilli(), 10)
}
