package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

type PostgresStore struct {
	*sqlStore
}

var postgresQueries = sqlQueries{
	schema: `
CREATE TABLE IF NOT EXISTS kv_entries (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	get: `SELECT value FROM kv_entries WHERE key = $1`,
	upsert: `
INSERT INTO kv_entries (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value,
	updated_at = NOW()`,
	delete: `DELETE FROM kv_entries WHERE key = $1`,
}

// NewPostgresStore uses an existing handle; the caller keeps ownership of db.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s, err := newSQLStore(db, "postgres", postgresQueries)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{sqlStore: s}, nil
}

// OpenPostgresStore dials dsn and closes the pool on Close.
func OpenPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s, err := NewPostgresStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}
