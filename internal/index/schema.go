// Package index provides a SQLite-backed index over canvas snapshots.
//
// The index stores one row per canvas and one row per widget, keeping
// the raw widget record as JSON so listings reproduce exactly what the
// snapshot contained. Geometry columns are denormalized for hierarchy
// walks and location lookups.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS canvases (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS widgets (
	canvas_id TEXT NOT NULL,
	id        TEXT NOT NULL,
	type      TEXT NOT NULL DEFAULT '',
	parent_id TEXT NOT NULL DEFAULT '',
	x         REAL NOT NULL DEFAULT 0,
	y         REAL NOT NULL DEFAULT 0,
	z         REAL NOT NULL DEFAULT 0,
	has_loc   INTEGER NOT NULL DEFAULT 0,
	ord       INTEGER NOT NULL DEFAULT 0,
	record    TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (canvas_id, id)
);

CREATE INDEX IF NOT EXISTS idx_widgets_id ON widgets(id);
CREATE INDEX IF NOT EXISTS idx_widgets_parent ON widgets(canvas_id, parent_id);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
