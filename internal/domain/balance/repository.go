package balance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const queryTimeout = 3 * time.Second

// Repository defines balance data access. Every mutation is a single
// conditional statement so concurrent writers cannot drive a balance
// below zero.
type Repository interface {
	Get(ctx context.Context, subscriberID uuid.UUID) (*Balance, error)
	SnapshotTx(ctx context.Context, tx *sqlx.Tx, subscriberID uuid.UUID) (*Snapshot, error)

	// AdjustTx adds the deltas when both results stay >= 0. ok is false
	// when no row matched.
	AdjustTx(ctx context.Context, tx *sqlx.Tx, subscriberID uuid.UUID, pointsDelta, cashbackDelta decimal.Decimal) (b *Balance, ok bool, err error)

	// RedeemTx debits points and used cashback and credits generated
	// cashback for an ACTIVE subscriber. Points and cashback spent must be
	// covered by the balances held before the sale.
	RedeemTx(ctx context.Context, tx *sqlx.Tx, subscriberID uuid.UUID, pointsUsed, cashbackGenerated, cashbackUsed decimal.Decimal) (b *Balance, ok bool, err error)

	GetPartnerCashback(ctx context.Context, subscriberID, partnerID uuid.UUID) (*PartnerCashback, error)
	ListPartnerCashback(ctx context.Context, subscriberID uuid.UUID) ([]PartnerCashback, error)

	// AdjustPartnerCashbackTx moves the ledger by earned-used. A positive
	// used must be covered by the balance held before the call. ok is false
	// otherwise or when the balance would go negative.
	AdjustPartnerCashbackTx(ctx context.Context, tx *sqlx.Tx, subscriberID, partnerID uuid.UUID, earned, used decimal.Decimal) (ok bool, err error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates balance repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, subscriberID uuid.UUID) (*Balance, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var b Balance
	err := r.db.GetContext(ctx, &b, `SELECT points, cashback FROM subscribers WHERE id = $1`, subscriberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get balance: %v", ErrInternal, err)
	}
	return &b, nil
}

func (r *repository) SnapshotTx(ctx context.Context, tx *sqlx.Tx, subscriberID uuid.UUID) (*Snapshot, error) {
	var s Snapshot
	err := tx.GetContext(ctx, &s, `SELECT status, points, cashback FROM subscribers WHERE id = $1`, subscriberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read subscriber: %v", ErrInternal, err)
	}
	return &s, nil
}

func (r *repository) AdjustTx(ctx context.Context, tx *sqlx.Tx, subscriberID uuid.UUID, pointsDelta, cashbackDelta decimal.Decimal) (*Balance, bool, error) {
	var b Balance
	err := tx.GetContext(ctx, &b, `
		UPDATE subscribers
		SET points = points + $2, cashback = cashback + $3, updated_at = NOW()
		WHERE id = $1 AND points + $2 >= 0 AND cashback + $3 >= 0
		RETURNING points, cashback
	`, subscriberID, pointsDelta, cashbackDelta)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: adjust balance: %v", ErrInternal, err)
	}
	return &b, true, nil
}

func (r *repository) RedeemTx(ctx context.Context, tx *sqlx.Tx, subscriberID uuid.UUID, pointsUsed, cashbackGenerated, cashbackUsed decimal.Decimal) (*Balance, bool, error) {
	var b Balance
	err := tx.GetContext(ctx, &b, `
		UPDATE subscribers
		SET points = points - $2, cashback = cashback + $3 - $4, updated_at = NOW()
		WHERE id = $1 AND status = 'ACTIVE' AND points >= $2 AND cashback >= $4
		RETURNING points, cashback
	`, subscriberID, pointsUsed, cashbackGenerated, cashbackUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: redeem balance: %v", ErrInternal, err)
	}
	return &b, true, nil
}

func (r *repository) GetPartnerCashback(ctx context.Context, subscriberID, partnerID uuid.UUID) (*PartnerCashback, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var c PartnerCashback
	err := r.db.GetContext(ctx, &c, `
		SELECT partner_id, balance, total_earned, total_used, updated_at
		FROM cashback_balances
		WHERE subscriber_id = $1 AND partner_id = $2
	`, subscriberID, partnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return &PartnerCashback{PartnerID: partnerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get partner cashback: %v", ErrInternal, err)
	}
	return &c, nil
}

func (r *repository) ListPartnerCashback(ctx context.Context, subscriberID uuid.UUID) ([]PartnerCashback, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var out []PartnerCashback
	err := r.db.SelectContext(ctx, &out, `
		SELECT cb.partner_id, p.trade_name AS partner_name, cb.balance, cb.total_earned, cb.total_used, cb.updated_at
		FROM cashback_balances cb
		JOIN partners p ON p.id = cb.partner_id
		WHERE cb.subscriber_id = $1
		ORDER BY cb.balance DESC, p.trade_name
	`, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("%w: list partner cashback: %v", ErrInternal, err)
	}
	return out, nil
}

func (r *repository) AdjustPartnerCashbackTx(ctx context.Context, tx *sqlx.Tx, subscriberID, partnerID uuid.UUID, earned, used decimal.Decimal) (bool, error) {
	delta := earned.Sub(used)
	spent := decimal.Max(used, decimal.Zero)

	if spent.IsPositive() || delta.IsNegative() {
		// Spending needs an existing row that already holds what is spent.
		result, err := tx.ExecContext(ctx, `
			UPDATE cashback_balances
			SET balance = balance + $3, total_earned = total_earned + $4, total_used = total_used + $5, updated_at = NOW()
			WHERE subscriber_id = $1 AND partner_id = $2 AND balance >= $6 AND balance + $3 >= 0
		`, subscriberID, partnerID, delta, earned, used, spent)
		if err != nil {
			return false, fmt.Errorf("%w: spend partner cashback: %v", ErrInternal, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("%w: rows affected: %v", ErrInternal, err)
		}
		return n > 0, nil
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO cashback_balances (subscriber_id, partner_id, balance, total_earned, total_used)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subscriber_id, partner_id) DO UPDATE SET
			balance = cashback_balances.balance + EXCLUDED.balance,
			total_earned = cashback_balances.total_earned + EXCLUDED.total_earned,
			total_used = cashback_balances.total_used + EXCLUDED.total_used,
			updated_at = NOW()
	`, subscriberID, partnerID, delta, earned, used)
	if err != nil {
		return false, fmt.Errorf("%w: credit partner cashback: %v", ErrInternal, err)
	}
	return true, nil
}
