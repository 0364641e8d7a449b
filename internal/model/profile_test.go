package model

import "testing"

func TestNeedsOnboarding(t *testing.T) {
	blank := "   "
	name := "Stephen Curry"

	tests := []struct {
		fullName *string
		expected bool
	}{
		{nil, true},
		{&blank, true},
		{&name, false},
	}

	for _, tt := range tests {
		p := &Profile{FullName: tt.fullName}
		if got := p.NeedsOnboarding(); got != tt.expected {
			t.Errorf("NeedsOnboarding(%v) = %v, want %v", tt.fullName, got, tt.expected)
		}
	}
}

func TestNormalizeFullName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "", true},
		{" a ", "", true},
		{"Al", "Al", false},
		{"  Stephen Curry  ", "Stephen Curry", false},
	}

	for _, tt := range tests {
		got, err := NormalizeFullName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeFullName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("NormalizeFullName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestEmailInDomain(t *testing.T) {
	tests := []struct {
		email    string
		domain   string
		expected bool
	}{
		{"student@davidson.edu", "davidson.edu", true},
		{"student@davidson.edu", "@davidson.edu", true},
		{"student@notdavidson.edu", "davidson.edu", false},
		{"student@davidson.edu.evil.com", "davidson.edu", false},
		{"@davidson.edu", "davidson.edu", false},
		{"nobody", "davidson.edu", false},
		{"anyone@example.com", "", true},
	}

	for _, tt := range tests {
		if got := EmailInDomain(tt.email, tt.domain); got != tt.expected {
			t.Errorf("EmailInDomain(%q, %q) = %v, want %v", tt.email, tt.domain, got, tt.expected)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Student@Davidson.EDU "); got != "student@davidson.edu" {
		t.Errorf("expected normalized email, got %q", got)
	}
}
