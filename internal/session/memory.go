package session

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/sitecms/internal/model"
)

// Memory keeps sessions in process memory; a restart invalidates them all.
type Memory struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]model.Session
}

// NewMemory constructs an in-memory store with the given session duration.
func NewMemory(ttl time.Duration, opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{
		ttl:      normalizeDuration(ttl),
		now:      o.now,
		sessions: make(map[string]model.Session),
	}
}

func (m *Memory) Create(_ context.Context, token string) error {
	now := m.now()
	m.mu.Lock()
	m.sessions[token] = model.Session{Token: token, CreatedAt: now, LastActive: now}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Validate(_ context.Context, token string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return false, nil
	}
	if s.Expired(now, m.ttl) {
		delete(m.sessions, token)
		return false, nil
	}
	s.LastActive = now
	m.sessions[token] = s
	return true, nil
}

func (m *Memory) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

func (m *Memory) CleanupExpired(_ context.Context) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for token, s := range m.sessions {
		if s.Expired(now, m.ttl) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// lookup returns a copy of the session record without touching LastActive.
func (m *Memory) lookup(token string) (model.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	return s, ok
}
