package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	*sqlStore
}

var sqliteQueries = sqlQueries{
	schema: `
CREATE TABLE IF NOT EXISTS kv_entries (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	get: `SELECT value FROM kv_entries WHERE key = ?`,
	upsert: `
INSERT INTO kv_entries (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE
SET value = excluded.value,
	updated_at = CURRENT_TIMESTAMP`,
	delete: `DELETE FROM kv_entries WHERE key = ?`,
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir sqlite dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers on the one database file.
	db.SetMaxOpenConns(1)

	s, err := newSQLStore(db, "sqlite", sqliteQueries)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return &SQLiteStore{sqlStore: s}, nil
}
