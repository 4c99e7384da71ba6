// Package session maps opaque tokens to authenticated user ids. Sessions
// live only in process memory and do not survive a restart.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL bounds session lifetime when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// Manager issues, resolves, and revokes session tokens. Safe for
// concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]entry
	ttl      time.Duration
	now      func() time.Time
}

type entry struct {
	userID    int64
	expiresAt time.Time
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions: make(map[string]entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Open issues a fresh unguessable token bound to the given user.
func (m *Manager) Open(userID int64) string {
	token := uuid.NewString()

	m.mu.Lock()
	m.sessions[token] = entry{
		userID:    userID,
		expiresAt: m.now().Add(m.ttl),
	}
	m.mu.Unlock()

	return token
}

// Resolve returns the user id bound to the token. Unknown, revoked, and
// expired tokens resolve to (0, false); expired entries are dropped here
// rather than by a background sweeper.
func (m *Manager) Resolve(token string) (int64, bool) {
	m.mu.RLock()
	e, ok := m.sessions[token]
	m.mu.RUnlock()

	if !ok {
		return 0, false
	}
	if m.now().After(e.expiresAt) {
		m.Revoke(token)
		return 0, false
	}
	return e.userID, true
}

// Revoke terminates the session. Revoking an unknown or already-revoked
// token is a no-op.
func (m *Manager) Revoke(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}
