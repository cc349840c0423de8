package partner

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

// ListFilter narrows the public partner directory.
type ListFilter struct {
	Category string
	Limit    int
	Offset   int
}

// Repository defines partner data access
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Partner, error)
	GetByOwnerUserID(ctx context.Context, userID uuid.UUID) (*Partner, error)
	List(ctx context.Context, filter ListFilter) ([]Partner, error)

	// Counter updates are single-statement increments; no read-modify-write.
	IncrementSalesTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal) error
	DecrementSalesTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	IncrementClicks(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates partner repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const selectPartner = `
	SELECT p.id, p.owner_user_id, p.trade_name, p.company_name, p.category, p.active,
	       p.page_views, p.clicks, p.sales_count, p.sales_amount, p.created_at, p.updated_at,
	       u.status AS owner_status
	FROM partners p
	JOIN users u ON u.id = p.owner_user_id
`

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Partner, error) {
	return r.get(ctx, selectPartner+` WHERE p.id = $1`, id)
}

func (r *repository) GetByOwnerUserID(ctx context.Context, userID uuid.UUID) (*Partner, error) {
	return r.get(ctx, selectPartner+` WHERE p.owner_user_id = $1`, userID)
}

func (r *repository) get(ctx context.Context, query string, id uuid.UUID) (*Partner, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Partner
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPartnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get partner: %v", ErrInternal, err)
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Partner, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := selectPartner + ` WHERE p.active AND u.status = 'active'`
	args := []interface{}{}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND p.category = $%d", len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY p.trade_name LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var partners []Partner
	if err := r.db.SelectContext(ctx, &partners, query, args...); err != nil {
		return nil, fmt.Errorf("%w: list partners: %v", ErrInternal, err)
	}
	return partners, nil
}

func (r *repository) IncrementSalesTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	return r.bumpTx(ctx, tx, `
		UPDATE partners
		SET sales_count = sales_count + 1, sales_amount = sales_amount + $2, updated_at = NOW()
		WHERE id = $1
	`, id, amount)
}

func (r *repository) DecrementSalesTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	return r.bumpTx(ctx, tx, `
		UPDATE partners
		SET sales_count = GREATEST(sales_count - 1, 0),
		    sales_amount = GREATEST(sales_amount - $2, 0),
		    updated_at = NOW()
		WHERE id = $1
	`, id, amount)
}

func (r *repository) bumpTx(ctx context.Context, tx *sqlx.Tx, query string, id uuid.UUID, amount decimal.Decimal) error {
	result, err := tx.ExecContext(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("%w: update partner sales: %v", ErrInternal, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrPartnerNotFound
	}
	return nil
}

func (r *repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.increment(ctx, `UPDATE partners SET page_views = page_views + 1 WHERE id = $1 AND active`, id)
}

func (r *repository) IncrementClicks(ctx context.Context, id uuid.UUID) error {
	return r.increment(ctx, `UPDATE partners SET clicks = clicks + 1 WHERE id = $1 AND active`, id)
}

func (r *repository) increment(ctx context.Context, query string, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%w: increment counter: %v", ErrInternal, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrPartnerNotFound
	}
	return nil
}
