package models

import "time"

// Session is a bearer session. Token is the plaintext handed to the caller
// once at login; only TokenHash is persisted.
type Session struct {
	ID        string
	Token     string
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
