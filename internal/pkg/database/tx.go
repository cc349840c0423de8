package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const sqlStateUniqueViolation = "23505"

// ErrTx wraps failures of the transaction machinery itself (begin/commit).
var ErrTx = errors.New("database transaction failed")

// TxBeginner is satisfied by *sqlx.DB.
type TxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// WithTx runs fn inside a READ COMMITTED transaction. The transaction is
// committed when fn returns nil and rolled back otherwise, including when the
// context is cancelled before commit.
func WithTx(ctx context.Context, db TxBeginner, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrTx, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrTx, err)
	}
	return nil
}

// TxRunner runs fn inside one transaction.
type TxRunner func(ctx context.Context, fn func(tx *sqlx.Tx) error) error

// Runner binds WithTx to db.
func Runner(db TxBeginner) TxRunner {
	return func(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
		return WithTx(ctx, db, fn)
	}
}

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation,
// optionally restricted to the given constraint names.
func IsUniqueViolation(err error, constraints ...string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != sqlStateUniqueViolation {
		return false
	}
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if pqErr.Constraint == c {
			return true
		}
	}
	return false
}
