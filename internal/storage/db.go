// Package storage persists the ledger in SQLite. Every write that must be
// atomic with other writes goes through Repository.RunInTx; the Queries type
// works identically on the pool and inside a transaction.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries bundles all SQL against a DBTX.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Repository owns the SQLite pool. Its embedded Queries run outside any
// transaction; RunInTx hands out transactional Queries.
type Repository struct {
	db *sql.DB
	*Queries
}

// Open opens (creating if needed) the database at dbPath and applies
// migrations. Transactions start as immediate so write conflicts surface at
// BEGIN rather than at COMMIT; the short busy timeout keeps contention
// visible to the retry policy instead of queueing indefinitely.
func Open(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := "file:" + dbPath +
		"?_txlock=immediate" +
		"&_pragma=busy_timeout(250)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, Queries: New(db)}, nil
}

// RunInTx executes fn inside one SQLite transaction. Either every write fn
// performs is committed or none are. Busy/locked and deadline failures come
// back as core.ConflictError so the coordinator can retry the whole unit.
func (r *Repository) RunInTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return mapConflict(err)
	}

	if err := fn(New(tx)); err != nil {
		tx.Rollback()
		return mapConflict(err)
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return mapConflict(err)
	}
	return nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
