package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrItemNotFound is returned when an item lookup has no matching row
var ErrItemNotFound = errors.New("item not found")

// DB wraps a SQLite database connection
type DB struct {
	conn *sql.DB
	Path string
}

// OpenDB opens a SQLite database with WAL mode enabled
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	return &DB{conn: conn, Path: path}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id      INTEGER PRIMARY KEY,
	parent  INTEGER,
	type    TEXT NOT NULL DEFAULT '',
	author  TEXT,
	time    INTEGER NOT NULL DEFAULT 0,
	title   TEXT,
	text    TEXT,
	dead    INTEGER NOT NULL DEFAULT 0,
	deleted INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent);
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	started_at    INTEGER NOT NULL,
	finished_at   INTEGER NOT NULL,
	salt          TEXT NOT NULL,
	max_bucket    INTEGER NOT NULL,
	seed          INTEGER NOT NULL,
	include_roots INTEGER NOT NULL DEFAULT 0,
	input_count   INTEGER NOT NULL,
	output_count  INTEGER NOT NULL,
	output_path   TEXT NOT NULL
);
`

// EnsureSchema creates the items and runs tables if they do not exist
func (d *DB) EnsureSchema(ctx context.Context) error {
	if _, err := d.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
