// Package session keeps the live login sessions of the process.
//
// The registry is volatile: it is created at startup and dropped at
// shutdown, so a restart invalidates every token.
package session

import (
	"sync"
	"time"

	"bistro/domain/user"

	"github.com/google/uuid"
)

type Session struct {
	Token     string
	UserID    string
	Role      user.Role
	IssuedAt  time.Time
	ExpiresAt time.Time // zero means no expiry
}

func (s Session) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type Option func(*Registry)

// WithTTL expires sessions ttl after issuance. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) { r.ttl = ttl }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithTokenSource replaces the random token generator, for tests.
func WithTokenSource(next func() string) Option {
	return func(r *Registry) { r.newToken = next }
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session

	ttl      time.Duration
	now      func() time.Time
	newToken func() string
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]Session),
		now:      time.Now,
		newToken: uuid.NewString,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Issue creates a session for role and returns it. The token is unique
// among live sessions.
func (r *Registry) Issue(userID string, role user.Role) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	token := r.newToken()
	for {
		if _, taken := r.sessions[token]; !taken {
			break
		}
		token = r.newToken()
	}

	s := Session{Token: token, UserID: userID, Role: role, IssuedAt: now}
	if r.ttl > 0 {
		s.ExpiresAt = now.Add(r.ttl)
	}
	r.sessions[token] = s
	return s
}

// Resolve returns the role bound to token. Unknown and expired tokens
// resolve to false.
func (r *Registry) Resolve(token string) (user.Role, bool) {
	s, ok := r.Lookup(token)
	if !ok {
		return user.RoleUnspecified, false
	}
	return s.Role, true
}

// Lookup returns the live session for token.
func (r *Registry) Lookup(token string) (Session, bool) {
	if token == "" {
		return Session{}, false
	}
	r.mu.RLock()
	s, ok := r.sessions[token]
	r.mu.RUnlock()
	if !ok || s.expired(r.now()) {
		return Session{}, false
	}
	return s, true
}

// Revoke removes token. Unknown tokens are ignored.
func (r *Registry) Revoke(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
}

// Sweep removes every session expired at now and returns how many.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for token, s := range r.sessions {
		if s.expired(now) {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, including expired ones not
// yet swept.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close drops every session.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]Session)
}
