// Package sqlite implements the local persistent store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/and161185/stock-keeper/internal/errs"
	"github.com/and161185/stock-keeper/internal/migrate"
)

// timeLayout is ISO-8601 with nanoseconds; values are stored in UTC.
const timeLayout = time.RFC3339Nano

// Store implements repository.LocalStore. The database is opened and
// migrated on first use; a failed initialization is retried on the next call.
type Store struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// New returns a store for the database file at path (":memory:" for tests).
func New(path string) *Store { return &Store{path: path} }

// Close releases the database if it was opened.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) conn(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}

	db, err := open(ctx, s.path)
	if err != nil {
		return nil, errs.Storage("open local store", err)
	}
	s.db = db
	return db, nil
}

func open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if err := migrate.UpSQLite(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// tx runs fn in a transaction, committing on success.
func (s *Store) tx(ctx context.Context, op string, fn func(*sql.Tx) error) (err error) {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Storage(op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if e := tx.Commit(); e != nil {
			err = errs.Storage(op, e)
		}
	}()
	if err := fn(tx); err != nil {
		return errs.Storage(op, err)
	}
	return nil
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}
