// Package dbx holds the small database/sql abstractions shared by the
// repositories: DBTX, satisfied by both *sql.DB and *sql.Tx, and WithTx for
// running a unit of work inside one transaction.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of database/sql used by the repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxBeginner opens transactions. *sql.DB satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// BeginError means no transaction could be opened, usually because the pool
// could not hand out a connection.
type BeginError struct{ Err error }

func (e *BeginError) Error() string { return fmt.Sprintf("begin transaction: %v", e.Err) }
func (e *BeginError) Unwrap() error { return e.Err }

// CommitError means fn succeeded but the commit did not.
type CommitError struct{ Err error }

func (e *CommitError) Error() string { return fmt.Sprintf("commit transaction: %v", e.Err) }
func (e *CommitError) Unwrap() error { return e.Err }

// WithTx begins a transaction, runs fn with it, and commits on success. An
// error or panic from fn rolls the transaction back; panics are rethrown.
// Errors from fn are returned unchanged so callers can still match them.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db TxBeginner, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return &BeginError{Err: err}
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = &CommitError{Err: cerr}
		}
	}()

	err = fn(ctx, tx)
	return err
}
