// Package auth implements the simulated identity collaborator. Login records
// an email against the browser session without any verification; the cart
// core consumes only the "is a user currently identified" signal.
package auth

import "sync"

// Sessions is an in-memory registry of identified sessions.
type Sessions struct {
	mu     sync.RWMutex
	emails map[string]string
}

// NewSessions creates an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{
		emails: make(map[string]string),
	}
}

// Login records the email for a session. No credentials are checked.
func (s *Sessions) Login(sessionID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails[sessionID] = email
}

// Logout forgets the identity recorded for a session.
func (s *Sessions) Logout(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.emails, sessionID)
}

// Identify returns the email recorded for a session and whether one exists.
func (s *Sessions) Identify(sessionID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email, ok := s.emails[sessionID]
	return email, ok
}
