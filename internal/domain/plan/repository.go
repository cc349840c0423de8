package plan

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

// Repository defines plan and benefit data access
type Repository interface {
	ListActive(ctx context.Context) ([]Plan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	ListBenefits(ctx context.Context, planID uuid.UUID) ([]Benefit, error)
	ListPartnerBenefits(ctx context.Context, partnerID uuid.UUID) ([]Benefit, error)

	UpsertPlan(ctx context.Context, tx *sqlx.Tx, p *Plan) error
	UpsertBenefit(ctx context.Context, tx *sqlx.Tx, b *Benefit) error
	LinkBenefit(ctx context.Context, tx *sqlx.Tx, planID, benefitID uuid.UUID) error
	GrantAccess(ctx context.Context, tx *sqlx.Tx, benefitID, partnerID uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new plan repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListActive(ctx context.Context) ([]Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var plans []Plan
	err := r.db.SelectContext(ctx, &plans, `
		SELECT id, slug, name, description, price, duration_days, active, created_at
		FROM plans
		WHERE active
		ORDER BY price ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list plans: %v", ErrInternal, err)
	}
	return plans, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Plan
	err := r.db.GetContext(ctx, &p, `
		SELECT id, slug, name, description, price, duration_days, active, created_at
		FROM plans WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get plan: %v", ErrInternal, err)
	}
	return &p, nil
}

func (r *repository) ListBenefits(ctx context.Context, planID uuid.UUID) ([]Benefit, error) {
	return r.selectBenefits(ctx, `
		SELECT b.id, b.slug, b.name, b.type, b.value, b.active, b.created_at
		FROM benefits b
		JOIN plan_benefits pb ON pb.benefit_id = b.id
		WHERE pb.plan_id = $1 AND b.active
		ORDER BY b.name
	`, planID)
}

func (r *repository) ListPartnerBenefits(ctx context.Context, partnerID uuid.UUID) ([]Benefit, error) {
	return r.selectBenefits(ctx, `
		SELECT b.id, b.slug, b.name, b.type, b.value, b.active, b.created_at
		FROM benefits b
		JOIN benefit_access ba ON ba.benefit_id = b.id
		WHERE ba.partner_id = $1 AND b.active
		ORDER BY b.name
	`, partnerID)
}

func (r *repository) selectBenefits(ctx context.Context, query string, id uuid.UUID) ([]Benefit, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var benefits []Benefit
	if err := r.db.SelectContext(ctx, &benefits, query, id); err != nil {
		return nil, fmt.Errorf("%w: list benefits: %v", ErrInternal, err)
	}
	for i := range benefits {
		if err := benefits[i].ParseValue(); err != nil {
			return nil, fmt.Errorf("benefit %s: %w", benefits[i].Slug, err)
		}
	}
	return benefits, nil
}

func (r *repository) UpsertPlan(ctx context.Context, tx *sqlx.Tx, p *Plan) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO plans (id, slug, name, description, price, duration_days, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			duration_days = EXCLUDED.duration_days,
			active = EXCLUDED.active
		RETURNING id, created_at
	`, p.ID, p.Slug, p.Name, p.Description, p.Price, p.DurationDays, p.Active).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: upsert plan %s: %v", ErrInternal, p.Slug, err)
	}
	return nil
}

func (r *repository) UpsertBenefit(ctx context.Context, tx *sqlx.Tx, b *Benefit) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO benefits (id, slug, name, type, value, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			value = EXCLUDED.value,
			active = EXCLUDED.active
		RETURNING id, created_at
	`, b.ID, b.Slug, b.Name, b.Type, b.ValueRaw, b.Active).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: upsert benefit %s: %v", ErrInternal, b.Slug, err)
	}
	return nil
}

func (r *repository) LinkBenefit(ctx context.Context, tx *sqlx.Tx, planID, benefitID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO plan_benefits (plan_id, benefit_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, planID, benefitID)
	if err != nil {
		return fmt.Errorf("%w: link benefit: %v", ErrInternal, err)
	}
	return nil
}

func (r *repository) GrantAccess(ctx context.Context, tx *sqlx.Tx, benefitID, partnerID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO benefit_access (benefit_id, partner_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, benefitID, partnerID)
	if err != nil {
		return fmt.Errorf("%w: grant access: %v", ErrInternal, err)
	}
	return nil
}
