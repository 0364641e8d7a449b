package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// NewTestDB opens a fresh database with the schema applied in the test's temp
// dir. It is file-backed so handlers under httptest get a real connection pool
// with WAL, as in production. The database is closed when the test finishes.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "wildcat.sqlite3"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := EnsureSchema(db); err != nil {
		t.Fatalf("applying schema: %v", err)
	}
	return db
}
