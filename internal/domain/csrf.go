package domain

import "time"

// CSRFSession binds a CSRF token to a client session.
type CSRFSession struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *CSRFSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
