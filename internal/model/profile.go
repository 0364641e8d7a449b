package model

import (
	"errors"
	"strings"
	"time"
)

// Profile is a user's public profile. ID equals the auth identity.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name"`
	PhoneNumber *string   `json:"phone_number"`
	AvatarURL   *string   `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// NeedsOnboarding reports whether the profile still lacks a display name.
func (p *Profile) NeedsOnboarding() bool {
	return p.FullName == nil || strings.TrimSpace(*p.FullName) == ""
}

// DisplayName returns the full name, or fallback if none was set yet.
func (p *Profile) DisplayName(fallback string) string {
	if p.NeedsOnboarding() {
		return fallback
	}
	return *p.FullName
}

// ErrNameTooShort is returned for onboarding names shorter than two characters.
var ErrNameTooShort = errors.New("please enter your real full name")

// NormalizeFullName trims the name and checks it is at least two characters long.
func NormalizeFullName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < 2 {
		return "", ErrNameTooShort
	}
	return name, nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailInDomain reports whether the normalized email belongs to domain.
func EmailInDomain(email, domain string) bool {
	domain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "@"))
	if domain == "" {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return false
	}
	return email[at+1:] == domain
}
