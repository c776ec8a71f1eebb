package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type sqlQueries struct {
	schema string
	get    string
	upsert string
	delete string
}

// sqlStore backs Store with a single kv_entries table. The Postgres and
// SQLite backends differ only in their SQL.
type sqlStore struct {
	db      *sql.DB
	q       sqlQueries
	ownsDB  bool
	backend string
}

func newSQLStore(db *sql.DB, backend string, q sqlQueries) (*sqlStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &sqlStore{db: db, q: q, backend: backend}
	if _, err := s.db.Exec(q.schema); err != nil {
		return nil, fmt.Errorf("ensure %s kv_entries schema: %w", backend, err)
	}
	return s, nil
}

func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	if err := s.db.QueryRowContext(ctx, s.q.get, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query %s entry: %w", s.backend, err)
	}
	return []byte(value), true, nil
}

func (s *sqlStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.q.upsert, key, string(value)); err != nil {
		return fmt.Errorf("upsert %s entry: %w", s.backend, err)
	}
	return nil
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.q.delete, key); err != nil {
		return fmt.Errorf("delete %s entry: %w", s.backend, err)
	}
	return nil
}

func (s *sqlStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
