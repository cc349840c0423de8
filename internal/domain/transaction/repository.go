package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clubebeneficios/clube-api/internal/pkg/database"
)

const queryTimeout = 5 * time.Second

// Repository is insert-only for ledger rows: there is no update or delete.
type Repository interface {
	RecordTx(ctx context.Context, tx *sqlx.Tx, t *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	LockByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Transaction, error)
	ListBySubscriber(ctx context.Context, subscriberID uuid.UUID, limit, offset int) ([]Transaction, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID, from, to time.Time, limit, offset int) ([]Transaction, error)
	SummarizeByPartner(ctx context.Context, partnerID uuid.UUID, from, to time.Time) (*Summary, error)
	DailyByPartner(ctx context.Context, partnerID uuid.UUID, from, to time.Time, loc *time.Location) ([]DailyPoint, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates transaction repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) RecordTx(ctx context.Context, tx *sqlx.Tx, t *Transaction) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO transactions (
			id, subscriber_id, partner_id, amount, points_used, discount_applied,
			cashback_generated, cashback_used, final_amount, type, status, description, reference_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`, t.ID, t.SubscriberID, t.PartnerID, t.Amount, t.PointsUsed, t.DiscountApplied,
		t.CashbackGenerated, t.CashbackUsed, t.FinalAmount, t.Type, t.Status, t.Description, t.ReferenceID,
	).Scan(&t.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "transactions_refund_once") {
			return ErrAlreadyRefunded
		}
		return fmt.Errorf("%w: insert transaction: %v", ErrInternal, err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t Transaction
	err := r.db.GetContext(ctx, &t, `SELECT * FROM transactions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get transaction: %v", ErrInternal, err)
	}
	return &t, nil
}

func (r *repository) LockByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Transaction, error) {
	var t Transaction
	err := tx.GetContext(ctx, &t, `SELECT * FROM transactions WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lock transaction: %v", ErrInternal, err)
	}
	return &t, nil
}

func (r *repository) ListBySubscriber(ctx context.Context, subscriberID uuid.UUID, limit, offset int) ([]Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var out []Transaction
	err := r.db.SelectContext(ctx, &out, `
		SELECT * FROM transactions
		WHERE subscriber_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, subscriberID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list subscriber transactions: %v", ErrInternal, err)
	}
	return out, nil
}

func (r *repository) ListByPartner(ctx context.Context, partnerID uuid.UUID, from, to time.Time, limit, offset int) ([]Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var out []Transaction
	err := r.db.SelectContext(ctx, &out, `
		SELECT * FROM transactions
		WHERE partner_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`, partnerID, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list partner transactions: %v", ErrInternal, err)
	}
	return out, nil
}

func (r *repository) SummarizeByPartner(ctx context.Context, partnerID uuid.UUID, from, to time.Time) (*Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Summary
	err := r.db.GetContext(ctx, &s, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'PURCHASE' THEN 1 ELSE -1 END), 0) AS count,
			COALESCE(SUM(CASE WHEN type = 'PURCHASE' THEN amount ELSE -amount END), 0) AS amount,
			COALESCE(SUM(CASE WHEN type = 'PURCHASE' THEN points_used ELSE -points_used END), 0) AS points_used,
			COALESCE(SUM(CASE WHEN type = 'PURCHASE' THEN discount_applied ELSE -discount_applied END), 0) AS discount,
			COALESCE(SUM(CASE WHEN type = 'PURCHASE' THEN cashback_generated ELSE -cashback_generated END), 0) AS cashback_generated,
			COALESCE(SUM(CASE WHEN type = 'PURCHASE' THEN cashback_used ELSE -cashback_used END), 0) AS cashback_used,
			COALESCE(SUM(CASE WHEN type = 'PURCHASE' THEN final_amount ELSE -final_amount END), 0) AS final_amount
		FROM transactions
		WHERE partner_id = $1
		  AND status = 'COMPLETED'
		  AND type IN ('PURCHASE', 'REFUND')
		  AND created_at >= $2 AND created_at < $3
	`, partnerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: summarize partner: %v", ErrInternal, err)
	}
	return &s, nil
}

func (r *repository) DailyByPartner(ctx context.Context, partnerID uuid.UUID, from, to time.Time, loc *time.Location) ([]DailyPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var out []DailyPoint
	err := r.db.SelectContext(ctx, &out, `
		SELECT
			(created_at AT TIME ZONE $4)::date AS day,
			SUM(CASE WHEN type = 'PURCHASE' THEN 1 ELSE -1 END) AS count,
			SUM(CASE WHEN type = 'PURCHASE' THEN amount ELSE -amount END) AS amount
		FROM transactions
		WHERE partner_id = $1
		  AND status = 'COMPLETED'
		  AND type IN ('PURCHASE', 'REFUND')
		  AND created_at >= $2 AND created_at < $3
		GROUP BY day
		ORDER BY day
	`, partnerID, from, to, loc.String())
	if err != nil {
		return nil, fmt.Errorf("%w: daily partner sales: %v", ErrInternal, err)
	}
	return out, nil
}
