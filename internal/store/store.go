// Package store holds the SQL for every table. Functions take a Querier so
// the same statements run on the pool or inside a transaction opened by InTx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/erazemk/premiki/internal/model"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InTx runs fn inside a transaction. The transaction is rolled back when fn
// returns an error; validation and not-found errors pass through unchanged,
// begin and commit failures surface as *model.StorageError.
func InTx(ctx context.Context, db *sql.DB, op string, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fail("beginning "+op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fail("committing "+op, err)
	}
	return nil
}

// fail wraps a driver error as a storage failure.
func fail(op string, err error) error {
	var se *model.StorageError
	if errors.As(err, &se) {
		return err
	}
	return &model.StorageError{Op: op, Err: err}
}

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02 15:04:05.000000000"

// dbTime formats t in UTC for DATETIME columns and range comparisons.
func dbTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// placeholders returns "?,?,...,?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
