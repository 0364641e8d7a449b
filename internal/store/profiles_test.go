package store

import (
	"context"
	"testing"

	"github.com/erazemk/wildcat/internal/db"
	"github.com/erazemk/wildcat/internal/model"
)

func TestEnsureProfileCreatesOnce(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p1, created, err := EnsureProfile(ctx, database, "new@davidson.edu")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if !created {
		t.Error("expected first call to create the profile")
	}
	if !p1.NeedsOnboarding() {
		t.Error("expected new profile without a name to need onboarding")
	}

	p2, created, err := EnsureProfile(ctx, database, "new@davidson.edu")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if created {
		t.Error("expected second call to reuse the profile")
	}
	if p1.ID != p2.ID {
		t.Errorf("expected same ID, got %s and %s", p1.ID, p2.ID)
	}
}

func TestEnsureProfilePrefillsFromDirectory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := ImportDirectory(ctx, database, []model.DirectoryEntry{
		{Email: "stcurry@davidson.edu", FullName: "Stephen Curry"},
	})
	if err != nil {
		t.Fatalf("ImportDirectory: %v", err)
	}

	p, _, err := EnsureProfile(ctx, database, "stcurry@davidson.edu")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if p.NeedsOnboarding() {
		t.Fatal("expected prefilled profile to skip onboarding")
	}
	if *p.FullName != "Stephen Curry" {
		t.Errorf("expected name from directory, got %q", *p.FullName)
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p, _, _ := EnsureProfile(ctx, database, "user@davidson.edu")
	name := "Jane Doe"
	if err := UpdateProfile(ctx, database, p.ID, model.ProfilePatch{FullName: &name}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	phone := "704-555-0199"
	if err := UpdateProfile(ctx, database, p.ID, model.ProfilePatch{PhoneNumber: &phone}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	got, err := GetProfile(ctx, database, p.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.FullName == nil || *got.FullName != name {
		t.Errorf("expected name kept, got %v", got.FullName)
	}
	if got.PhoneNumber == nil || *got.PhoneNumber != phone {
		t.Errorf("expected phone set, got %v", got.PhoneNumber)
	}
	if got.AvatarURL != nil {
		t.Errorf("expected no avatar, got %q", *got.AvatarURL)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	p, err := GetProfile(context.Background(), database, "nope")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p != nil {
		t.Error("expected nil profile")
	}
}
