// Package index keeps a SQLite copy of the searchable content (posts and
// pages) so search can score a corpus without reading every key from storage.
// The stored content remains the source of truth; the index is rebuilt from it
// by Sync and kept fresh by Watch.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	key            TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	locale         TEXT NOT NULL DEFAULT '',
	slug           TEXT NOT NULL,
	format         TEXT NOT NULL,
	id             TEXT NOT NULL DEFAULT '',
	title          TEXT NOT NULL DEFAULT '',
	body           TEXT NOT NULL DEFAULT '',
	excerpt        TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT '',
	date           DATETIME,
	scheduled_date DATETIME,
	checksum       TEXT NOT NULL DEFAULT '',
	indexed_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_documents_kind_locale ON documents(kind, locale);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
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
