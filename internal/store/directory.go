package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/wildcat/internal/model"
)

// ImportDirectory upserts directory entries in a single transaction.
// Entries with an empty email or name are skipped. It returns the number of rows written.
func ImportDirectory(ctx context.Context, db *sql.DB, entries []model.DirectoryEntry) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO directory_lookup (email, full_name) VALUES (?, ?)
		 ON CONFLICT(email) DO UPDATE SET full_name = excluded.full_name`,
	)
	if err != nil {
		return 0, fmt.Errorf("preparing directory insert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, e := range entries {
		email := model.NormalizeEmail(e.Email)
		name, nameErr := model.NormalizeFullName(e.FullName)
		if email == "" || nameErr != nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, email, name); err != nil {
			return 0, fmt.Errorf("importing %s: %w", email, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing directory import: %w", err)
	}
	return written, nil
}

// LookupDirectory returns the directory entry for email.
func LookupDirectory(ctx context.Context, db *sql.DB, email string) (*model.DirectoryEntry, error) {
	e := &model.DirectoryEntry{}
	err := db.QueryRowContext(ctx,
		`SELECT email, full_name FROM directory_lookup WHERE email = ?`, email,
	).Scan(&e.Email, &e.FullName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up directory: %w", err)
	}
	return e, nil
}
