// Package archive provides access to the sqlite archive database written by
// the ingester: entity models, row decoders, batched relation lookups, and an
// exclusive store handle.
package archive

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the archive database connection. All access goes through an
// exclusively held Handle; no two requests touch the connection concurrently.
type DB struct {
	mu   sync.Mutex
	conn *sql.DB
}

// Open opens (or creates) the archive database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("archive: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("archive: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("archive: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Acquire takes exclusive ownership of the store connection and returns a
// Handle for the duration of one request's database work. The caller must
// Release it, typically via defer, at scope exit.
func (db *DB) Acquire() *Handle {
	db.mu.Lock()
	return &Handle{db: db}
}

// Handle is the single-owner view of the store connection. It is valid until
// Release is called and must not be retained afterwards.
type Handle struct {
	db       *DB
	released bool
}

// Release returns ownership of the connection. Safe to call more than once.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.db.mu.Unlock()
}

// Query runs a query returning rows.
func (h *Handle) Query(query string, args ...any) (*sql.Rows, error) {
	return h.db.conn.Query(query, args...)
}

// QueryRow runs a query expected to return at most one row.
func (h *Handle) QueryRow(query string, args ...any) *sql.Row {
	return h.db.conn.QueryRow(query, args...)
}

// Exec runs a statement without returning rows.
func (h *Handle) Exec(query string, args ...any) (sql.Result, error) {
	return h.db.conn.Exec(query, args...)
}

// Begin opens a transaction on the held connection.
func (h *Handle) Begin() (*sql.Tx, error) {
	return h.db.conn.Begin()
}
