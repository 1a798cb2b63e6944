package portal

import "time"

// Session is the authenticated state of one portal client. It is loaded per
// request and passed explicitly to every operation that talks to the API.
type Session struct {
	ID        string
	Token     string // bearer token issued by the remote API
	UserID    string // empty when the login response did not carry one
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
