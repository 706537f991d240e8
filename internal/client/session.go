package client

import (
	"sync"
	"time"
)

// Session is the caller's authenticated identity. It is passed explicitly to
// the Client and the Board; clearing it logs the user out of both.
type Session struct {
	mu        sync.RWMutex
	token     string
	accountID string
	role      string
	memberID  string
	expiresAt time.Time
}

func (s *Session) set(token, accountID, role, memberID string, exp time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.accountID, s.role, s.memberID, s.expiresAt = token, accountID, role, memberID, exp
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) AccountID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountID
}

func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// Authenticated reports whether a non-expired token is held.
func (s *Session) Authenticated(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && (s.expiresAt.IsZero() || now.Before(s.expiresAt))
}

func (s *Session) Clear() {
	s.set("", "", "", "", time.Time{})
}
