package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestNewPostgresStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_entries").WillReturnResult(sqlmock.NewResult(0, 0))

	if _, err := NewPostgresStore(db); err != nil {
		t.Fatalf("NewPostgresStore() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestNewPostgresStoreSchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_entries").WillReturnError(errors.New("permission denied"))

	if _, err := NewPostgresStore(db); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestPostgresStoreSetGetDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := NewPostgresStore(db)
	if err != nil {
		t.Fatalf("NewPostgresStore() error: %v", err)
	}
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO kv_entries").
		WithArgs("tanstack.auth.user", `{"id":1}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	if err := store.Set(ctx, "tanstack.auth.user", []byte(`{"id":1}`)); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	mock.ExpectQuery("SELECT value FROM kv_entries WHERE key").
		WithArgs("tanstack.auth.user").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"id":1}`))
	v, found, err := store.Get(ctx, "tanstack.auth.user")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !found || string(v) != `{"id":1}` {
		t.Fatalf("unexpected Get() result: found=%v value=%q", found, v)
	}

	mock.ExpectExec("DELETE FROM kv_entries WHERE key").
		WithArgs("tanstack.auth.user").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.Delete(ctx, "tanstack.auth.user"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	mock.ExpectQuery("SELECT value FROM kv_entries WHERE key").
		WithArgs("tanstack.auth.user").
		WillReturnError(sql.ErrNoRows)
	_, found, err = store.Get(ctx, "tanstack.auth.user")
	if err != nil {
		t.Fatalf("Get() after delete error: %v", err)
	}
	if found {
		t.Fatalf("expected key to be gone after delete")
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close() on borrowed handle error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresStoreGetError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := NewPostgresStore(db)
	if err != nil {
		t.Fatalf("NewPostgresStore() error: %v", err)
	}

	mock.ExpectQuery("SELECT value FROM kv_entries WHERE key").WillReturnError(errors.New("connection reset"))
	if _, _, err := store.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected Get() error")
	}
}
