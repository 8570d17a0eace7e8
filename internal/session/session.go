package session

import (
	"errors"
	"sync"

	"github.com/notepid/club_companion/internal/domain"
)

// ErrNotAuthenticated is returned by Require when nobody is logged in.
var ErrNotAuthenticated = errors.New("not authenticated")

// Session is the logged-in actor plus what the login call returned.
type Session struct {
	Actor domain.Actor
	Email string
	Token string
}

// Store holds the current session in memory for the life of the process.
type Store struct {
	mu  sync.RWMutex
	cur *Session
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Set replaces the current session.
func (s *Store) Set(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = &sess
}

// Current returns the session, if any.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return Session{}, false
	}
	return *s.cur, true
}

// Require returns the session or ErrNotAuthenticated.
func (s *Store) Require() (Session, error) {
	sess, ok := s.Current()
	if !ok {
		return Session{}, ErrNotAuthenticated
	}
	return sess, nil
}

// Clear logs out.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = nil
}

// Token returns the bearer token of the current session, or "".
func (s *Store) Token() string {
	sess, ok := s.Current()
	if !ok {
		return ""
	}
	return sess.Token
}
