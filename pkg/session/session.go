package session

import (
	"sync"

	"github.com/harrisonrobin/taskflow/pkg/model"
)

// Session is the authenticated context for the current user.
type Session struct {
	Token string
	User  model.UserProfile
}

// Store holds at most one session. It is created on login and cleared on
// logout; nothing is written to disk.
type Store struct {
	mu      sync.RWMutex
	current *Session
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Set replaces the current session. An empty token clears it.
func (s *Store) Set(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.Token == "" {
		s.current = nil
		return
	}
	s.current = &sess
}

// Current returns the session and whether one exists.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Token returns the bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Clear drops the current session.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}
