package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/wildcat/internal/model"
)

const profileColumns = `id, email, full_name, phone_number, avatar_url, created_at`

// EnsureProfile returns the profile for email, creating it on first login.
// A new profile takes its name from the directory lookup when the email is listed there.
func EnsureProfile(ctx context.Context, db *sql.DB, email string) (*model.Profile, bool, error) {
	p, err := GetProfileByEmail(ctx, db, email)
	if err != nil {
		return nil, false, err
	}
	if p != nil {
		return p, false, nil
	}

	var fullName *string
	entry, err := LookupDirectory(ctx, db, email)
	if err != nil {
		return nil, false, err
	}
	if entry != nil {
		fullName = &entry.FullName
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, full_name, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(email) DO NOTHING`,
		id, email, fullName, time.Now().UTC(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("creating profile: %w", err)
	}

	// Re-read by email: a concurrent first login may have won the insert.
	p, err = GetProfileByEmail(ctx, db, email)
	if err != nil {
		return nil, false, err
	}
	if p == nil {
		return nil, false, fmt.Errorf("creating profile: row missing after insert")
	}
	return p, p.ID == id, nil
}

// GetProfile returns a profile by ID.
func GetProfile(ctx context.Context, db *sql.DB, id string) (*model.Profile, error) {
	p, err := scanProfile(db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

// GetProfileByEmail returns a profile by its (normalized) email.
func GetProfileByEmail(ctx context.Context, db *sql.DB, email string) (*model.Profile, error) {
	p, err := scanProfile(db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE email = ?`, email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile by email: %w", err)
	}
	return p, nil
}

// UpdateProfile applies the non-nil fields of u.
func UpdateProfile(ctx context.Context, db *sql.DB, id string, u model.ProfilePatch) error {
	_, err := db.ExecContext(ctx,
		`UPDATE profiles SET
		     full_name    = COALESCE(?, full_name),
		     phone_number = COALESCE(?, phone_number),
		     avatar_url   = COALESCE(?, avatar_url)
		 WHERE id = ?`,
		u.FullName, u.PhoneNumber, u.AvatarURL, id,
	)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*model.Profile, error) {
	p := &model.Profile{}
	var fullName, phone, avatar sql.NullString
	if err := row.Scan(&p.ID, &p.Email, &fullName, &phone, &avatar, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.FullName = nullToPtr(fullName)
	p.PhoneNumber = nullToPtr(phone)
	p.AvatarURL = nullToPtr(avatar)
	return p, nil
}

func nullToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
