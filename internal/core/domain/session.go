package domain

import "time"

// Session represents a persisted login session. The bearer secret itself is
// never stored; only its digest is, so a database dump cannot reconstruct a
// usable token.
type Session struct {
	ID        string
	AccountID string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsActive reports whether the session is still valid at the supplied moment.
func (s Session) IsActive(at time.Time) bool {
	return s.ExpiresAt.After(at)
}
