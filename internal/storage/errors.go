package storage

import (
	"context"
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/NT912/FinWise-sub000/internal/core"
)

func sqliteCode(err error) int {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

// isBusy matches SQLITE_BUSY and SQLITE_LOCKED including extended codes.
func isBusy(err error) bool {
	base := sqliteCode(err) & 0xff
	return base == sqlite3.SQLITE_BUSY || base == sqlite3.SQLITE_LOCKED
}

func isUniqueViolation(err error) bool {
	code := sqliteCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isCheckViolation(err error) bool {
	return sqliteCode(err) == sqlite3.SQLITE_CONSTRAINT_CHECK
}

// mapConflict converts write contention and commit timeouts into a retryable
// core.ConflictError. Everything else passes through untouched.
func mapConflict(err error) error {
	if err == nil {
		return nil
	}
	if core.IsConflict(err) {
		return err
	}
	if isBusy(err) || errors.Is(err, context.DeadlineExceeded) {
		return core.NewConflictError("commit", err)
	}
	return err
}
