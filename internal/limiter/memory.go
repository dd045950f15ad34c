package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/sitecms/internal/model"
)

type window struct {
	count   int
	resetAt time.Time
}

// Memory is a process-local limiter. Counters are lost on restart.
type Memory struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	entries map[string]*window
}

// NewMemory constructs an in-memory limiter allowing max attempts per window.
func NewMemory(max int, win time.Duration, opts ...Option) *Memory {
	max, win = normalize(max, win)
	o := buildOptions(opts)
	return &Memory{
		max:     max,
		window:  win,
		now:     o.now,
		entries: make(map[string]*window),
	}
}

// Check records an attempt for identifier.
// Windows that already ended are swept on every call.
func (m *Memory) Check(_ context.Context, identifier string) (model.Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, w := range m.entries {
		if now.After(w.resetAt) {
			delete(m.entries, k)
		}
	}

	w, ok := m.entries[identifier]
	if !ok {
		w = &window{count: 1, resetAt: now.Add(m.window)}
		m.entries[identifier] = w
		return model.Decision{Allowed: true, ResetAt: w.resetAt}, nil
	}
	if w.count >= m.max {
		return model.Decision{Allowed: false, ResetAt: w.resetAt}, nil
	}
	w.count++
	return model.Decision{Allowed: true, ResetAt: w.resetAt}, nil
}

// size returns the number of live windows.
func (m *Memory) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
