package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type failingBeginner struct{}

func (failingBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, errors.New("connection refused")
}

func TestWithTxBeginFailure(t *testing.T) {
	called := false
	err := WithTx(context.Background(), failingBeginner{}, func(tx *sqlx.Tx) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrTx) {
		t.Fatalf("expected ErrTx, got %v", err)
	}
	if called {
		t.Fatal("fn must not run when begin fails")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "subscribers_tax_id_key"})

	if !IsUniqueViolation(dup) {
		t.Fatal("expected unique violation")
	}
	if !IsUniqueViolation(dup, "other", "subscribers_tax_id_key") {
		t.Fatal("expected match on constraint name")
	}
	if IsUniqueViolation(dup, "other") {
		t.Fatal("unexpected match on wrong constraint")
	}
	if IsUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatal("foreign key violation is not a unique violation")
	}
	if IsUniqueViolation(errors.New("plain")) {
		t.Fatal("plain error is not a unique violation")
	}
}
