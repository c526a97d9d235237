// Package dbx holds the database abstractions shared by repositories.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql the repositories need. Both *sql.DB and
// *sql.Tx satisfy it, so a repository can be bound to either.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRunner runs fn inside a transaction. A nil *sql.DB means there is no
// transactional backend and fn runs directly against a nil handle.
type TxRunner func(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error

// WithTx begins a transaction, runs fn and commits on success. The
// transaction is rolled back when fn returns an error or panics; panics are
// re-raised after the rollback.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
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
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// NewTxRunner binds WithTx to db. With a nil db the returned runner calls fn
// without a transaction.
func NewTxRunner(db *sql.DB) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
		if db == nil {
			return fn(ctx, nil)
		}
		return WithTx(ctx, db, nil, fn)
	}
}
