package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository defines payment data access
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	SetExternalID(ctx context.Context, id uuid.UUID, externalID string) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListBySubscriber(ctx context.Context, subscriberID uuid.UUID, limit, offset int) ([]Payment, error)

	LockByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Payment, error)
	LockByInvoiceIDTx(ctx context.Context, tx *sqlx.Tx, invoiceID int64) (*Payment, error)
	MarkCompletedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, externalID string, paidAt time.Time) error
	MarkFailedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates payment repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Create inserts a pending payment; the invoice number comes from a sequence.
func (r *repository) Create(ctx context.Context, p *Payment) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO payments (id, subscriber_id, plan_id, amount, provider, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING invoice_id, created_at
	`, p.ID, p.SubscriberID, p.PlanID, p.Amount, p.Provider, p.Status).Scan(&p.InvoiceID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert payment: %v", ErrInternal, err)
	}
	return nil
}

func (r *repository) SetExternalID(ctx context.Context, id uuid.UUID, externalID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `UPDATE payments SET external_id = $2 WHERE id = $1`, id, externalID); err != nil {
		return fmt.Errorf("%w: set external id: %v", ErrInternal, err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Payment
	err := r.db.GetContext(ctx, &p, `SELECT * FROM payments WHERE id = $1`, id)
	return one(&p, err)
}

func (r *repository) ListBySubscriber(ctx context.Context, subscriberID uuid.UUID, limit, offset int) ([]Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	payments := []Payment{}
	err := r.db.SelectContext(ctx, &payments, `
		SELECT * FROM payments
		WHERE subscriber_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, subscriberID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list payments: %v", ErrInternal, err)
	}
	return payments, nil
}

func (r *repository) LockByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Payment, error) {
	var p Payment
	err := tx.GetContext(ctx, &p, `SELECT * FROM payments WHERE id = $1 FOR UPDATE`, id)
	return one(&p, err)
}

func (r *repository) LockByInvoiceIDTx(ctx context.Context, tx *sqlx.Tx, invoiceID int64) (*Payment, error) {
	var p Payment
	err := tx.GetContext(ctx, &p, `SELECT * FROM payments WHERE invoice_id = $1 FOR UPDATE`, invoiceID)
	return one(&p, err)
}

func (r *repository) MarkCompletedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, externalID string, paidAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status = 'completed', paid_at = $3, external_id = COALESCE(NULLIF($2, ''), external_id)
		WHERE id = $1
	`, id, externalID, paidAt)
	if err != nil {
		return fmt.Errorf("%w: complete payment: %v", ErrInternal, err)
	}
	return nil
}

func (r *repository) MarkFailedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `UPDATE payments SET status = 'failed' WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%w: fail payment: %v", ErrInternal, err)
	}
	return nil
}

func one(p *Payment, err error) (*Payment, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get payment: %v", ErrInternal, err)
	}
	return p, nil
}
