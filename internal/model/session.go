package model

import "time"

// Session is an authenticated identity as returned by the login endpoints.
// Token is only set when the session is first issued.
type Session struct {
	Token     string    `json:"token,omitempty"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	Profile   *Profile  `json:"profile"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
