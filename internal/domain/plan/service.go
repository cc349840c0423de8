package plan

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/clubebeneficios/clube-api/internal/pkg/database"
)

// Service handles plan catalog business logic
type Service struct {
	repo Repository
	db   database.TxBeginner
}

// NewService creates plan service. db is only used by ApplyCatalog.
func NewService(repo Repository, db database.TxBeginner) *Service {
	return &Service{repo: repo, db: db}
}

func (s *Service) ListActive(ctx context.Context) ([]Plan, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return s.repo.GetByID(ctx, id)
}

// GetPurchasable returns the plan if it can be bought.
func (s *Service) GetPurchasable(ctx context.Context, id uuid.UUID) (*Plan, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ErrPlanInactive
	}
	return p, nil
}

func (s *Service) ListBenefits(ctx context.Context, planID uuid.UUID) ([]Benefit, error) {
	return s.repo.ListBenefits(ctx, planID)
}

func (s *Service) ListPartnerBenefits(ctx context.Context, partnerID uuid.UUID) ([]Benefit, error) {
	return s.repo.ListPartnerBenefits(ctx, partnerID)
}

// MonthlyPoints sums the PONTOS benefits attached to the plan.
func (s *Service) MonthlyPoints(ctx context.Context, planID uuid.UUID) (decimal.Decimal, error) {
	benefits, err := s.repo.ListBenefits(ctx, planID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, b := range benefits {
		if v, ok := b.Value.(PointsValue); ok {
			total = total.Add(v.MonthlyPoints)
		}
	}
	return total, nil
}

// ApplyCatalog upserts every plan and benefit in one transaction, keyed by slug.
func (s *Service) ApplyCatalog(ctx context.Context, c *Catalog) error {
	plans, benefits, err := c.build()
	if err != nil {
		return err
	}

	return database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		ids := make(map[string]uuid.UUID, len(benefits))
		for slug, entry := range benefits {
			b := entry.benefit
			if err := s.repo.UpsertBenefit(ctx, tx, &b); err != nil {
				return err
			}
			ids[slug] = b.ID
			for _, partnerID := range entry.partners {
				if err := s.repo.GrantAccess(ctx, tx, b.ID, partnerID); err != nil {
					return err
				}
			}
		}

		for i, p := range plans {
			if err := s.repo.UpsertPlan(ctx, tx, &p); err != nil {
				return err
			}
			for _, slug := range c.Plans[i].Benefits {
				if err := s.repo.LinkBenefit(ctx, tx, p.ID, ids[slug]); err != nil {
					return err
				}
			}
			log.Info().Str("plan", p.Slug).Str("price", p.Price.StringFixed(2)).Msg("Plan seeded")
		}
		return nil
	})
}
