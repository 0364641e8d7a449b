package model

import "time"

// LoginCode is a pending one-time login code for an email address.
// Only a hash of the code is stored.
type LoginCode struct {
	Email     string
	CodeHash  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Attempts  int
}

// Expired reports whether the code is past its expiry at now.
func (c *LoginCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// DirectoryEntry maps an institutional email to the person's full name.
type DirectoryEntry struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}
