package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS profiles (
    id           TEXT PRIMARY KEY,
    email        TEXT NOT NULL UNIQUE,
    full_name    TEXT,
    phone_number TEXT,
    avatar_url   TEXT,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id            TEXT PRIMARY KEY,
    seller_id     TEXT NOT NULL REFERENCES profiles(id),
    title         TEXT NOT NULL,
    price         TEXT NOT NULL DEFAULT '0',
    description   TEXT NOT NULL DEFAULT '',
    category      TEXT NOT NULL,
    condition     TEXT NOT NULL,
    images        TEXT NOT NULL DEFAULT '[]',
    display_phone TEXT,
    status        TEXT NOT NULL DEFAULT 'Active' CHECK (status IN ('Active', 'Sold', 'Archived')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_status_created
    ON items(status, created_at);

CREATE INDEX IF NOT EXISTS idx_items_seller
    ON items(seller_id);

CREATE TABLE IF NOT EXISTS login_codes (
    email      TEXT PRIMARY KEY,
    code_hash  TEXT NOT NULL,
    issued_at  DATETIME NOT NULL,
    expires_at DATETIME NOT NULL,
    attempts   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS directory_lookup (
    email     TEXT PRIMARY KEY,
    full_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
