package partner

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Service handles partner business logic
type Service struct {
	repo Repository
}

// NewService creates partner service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Partner, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByOwnerUserID resolves the partner operated by the signed-in user.
func (s *Service) GetByOwnerUserID(ctx context.Context, userID uuid.UUID) (*Partner, error) {
	p, err := s.repo.GetByOwnerUserID(ctx, userID)
	if errors.Is(err, ErrPartnerNotFound) {
		return nil, ErrNotPartnerOwner
	}
	return p, err
}

// CheckEligible returns the partner if it may receive redemptions.
func (s *Service) CheckEligible(ctx context.Context, id uuid.UUID) (*Partner, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsEligible() {
		return nil, ErrPartnerInactive
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Partner, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) IncrementSalesTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	return s.repo.IncrementSalesTx(ctx, tx, id, amount)
}

func (s *Service) DecrementSalesTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	return s.repo.DecrementSalesTx(ctx, tx, id, amount)
}

func (s *Service) TrackView(ctx context.Context, id uuid.UUID) error {
	return s.repo.IncrementViews(ctx, id)
}

func (s *Service) TrackClick(ctx context.Context, id uuid.UUID) error {
	return s.repo.IncrementClicks(ctx, id)
}
