// Package sqlite keeps the run history in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/tp3s/internal/storage"
)

// dsnOptions serialises writers behind a busy timeout instead of failing
// with SQLITE_BUSY when a CLI command and a server share the file.
const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"

// Store is the run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ storage.Storage = (*Store)(nil)

// Open opens the history at path, creating the file and schema on first
// use.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Begin starts a transaction over the run tables.
func (s *Store) Begin(ctx context.Context) (storage.UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &runTx{Tx: tx, runs: &runRepo{tx: tx}}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// runTx is one transaction; Commit and Rollback come from the embedded
// *sql.Tx.
type runTx struct {
	*sql.Tx
	runs *runRepo
}

func (t *runTx) Runs() storage.RunRepository { return t.runs }
