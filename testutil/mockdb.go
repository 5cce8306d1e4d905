package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateInMemoryDB creates an in-memory SQLite database for testing
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// SeedSettings inserts key-value pairs into an already-migrated settings table
func SeedSettings(t *testing.T, db *sql.DB, pairs map[string]string) {
	t.Helper()
	for key, value := range pairs {
		if _, err := db.Exec(
			"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value,
		); err != nil {
			t.Fatalf("Failed to seed setting %s: %v", key, err)
		}
	}
}
