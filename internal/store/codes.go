package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/wildcat/internal/model"
)

// SaveLoginCode stores a login code for the email, replacing any previous one.
func SaveLoginCode(ctx context.Context, db *sql.DB, c *model.LoginCode) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO login_codes (email, code_hash, issued_at, expires_at, attempts)
		 VALUES (?, ?, ?, ?, 0)
		 ON CONFLICT(email) DO UPDATE SET
		     code_hash = excluded.code_hash,
		     issued_at = excluded.issued_at,
		     expires_at = excluded.expires_at,
		     attempts = 0`,
		c.Email, c.CodeHash, c.IssuedAt.UTC(), c.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving login code: %w", err)
	}
	return nil
}

// GetLoginCode returns the pending login code for email.
func GetLoginCode(ctx context.Context, db *sql.DB, email string) (*model.LoginCode, error) {
	c := &model.LoginCode{}
	err := db.QueryRowContext(ctx,
		`SELECT email, code_hash, issued_at, expires_at, attempts
		 FROM login_codes WHERE email = ?`, email,
	).Scan(&c.Email, &c.CodeHash, &c.IssuedAt, &c.ExpiresAt, &c.Attempts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting login code: %w", err)
	}
	return c, nil
}

// IncrementLoginCodeAttempts records a failed verification and returns the new count.
func IncrementLoginCodeAttempts(ctx context.Context, db *sql.DB, email string) (int, error) {
	var attempts int
	err := db.QueryRowContext(ctx,
		`UPDATE login_codes SET attempts = attempts + 1 WHERE email = ? RETURNING attempts`, email,
	).Scan(&attempts)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("incrementing login code attempts: %w", err)
	}
	return attempts, nil
}

// DeleteLoginCode removes the pending code for email.
func DeleteLoginCode(ctx context.Context, db *sql.DB, email string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM login_codes WHERE email = ?`, email); err != nil {
		return fmt.Errorf("deleting login code: %w", err)
	}
	return nil
}

// PurgeExpiredLoginCodes deletes codes that expired before now.
func PurgeExpiredLoginCodes(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM login_codes WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging login codes: %w", err)
	}
	return result.RowsAffected()
}
