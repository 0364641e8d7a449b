package store

import (
	"context"
	"testing"

	"github.com/erazemk/wildcat/internal/db"
	"github.com/erazemk/wildcat/internal/model"
)

func TestImportDirectory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	n, err := ImportDirectory(ctx, database, []model.DirectoryEntry{
		{Email: " StCurry@Davidson.edu ", FullName: "Stephen Curry"},
		{Email: "", FullName: "No Email"},
		{Email: "blank@davidson.edu", FullName: " "},
	})
	if err != nil {
		t.Fatalf("ImportDirectory: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row written, got %d", n)
	}

	e, err := LookupDirectory(ctx, database, "stcurry@davidson.edu")
	if err != nil {
		t.Fatalf("LookupDirectory: %v", err)
	}
	if e == nil || e.FullName != "Stephen Curry" {
		t.Fatalf("expected entry, got %+v", e)
	}

	// Re-importing updates the name.
	ImportDirectory(ctx, database, []model.DirectoryEntry{{Email: "stcurry@davidson.edu", FullName: "Wardell Curry"}})
	e, _ = LookupDirectory(ctx, database, "stcurry@davidson.edu")
	if e.FullName != "Wardell Curry" {
		t.Errorf("expected updated name, got %q", e.FullName)
	}

	missing, _ := LookupDirectory(ctx, database, "blank@davidson.edu")
	if missing != nil {
		t.Error("expected skipped entry to be absent")
	}
}
