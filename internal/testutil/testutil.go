// Package testutil provides shared test helpers for setting up archive databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/muninn/internal/archive"
)

// TestDB creates a temporary archive database that is automatically cleaned up.
func TestDB(t *testing.T) *archive.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "muninn-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := archive.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Exec runs a statement against the database, failing the test on error.
func Exec(t *testing.T, db *archive.DB, query string, args ...any) {
	t.Helper()
	h := db.Acquire()
	defer h.Release()
	if _, err := h.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}
