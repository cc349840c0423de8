package subscriber

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/clubebeneficios/clube-api/internal/pkg/validator"
)

// Service handles subscriber lifecycle
type Service struct {
	repo Repository
}

// NewService creates subscriber service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a PENDING subscriber for the signed-in user.
func (s *Service) Register(ctx context.Context, userID uuid.UUID, req *RegisterRequest) (*Subscriber, error) {
	if !validator.ValidCPF(req.TaxID) {
		return nil, ErrInvalidTaxID
	}

	sub := &Subscriber{
		ID:     uuid.New(),
		UserID: userID,
		Name:   strings.TrimSpace(req.Name),
		TaxID:  validator.NormalizeTaxID(req.TaxID),
		Email:  strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:  req.Phone,
		Status: StatusPending,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	log.Info().Str("subscriber_id", sub.ID.String()).Msg("Subscriber registered")
	return sub, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Subscriber, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (*Subscriber, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// ActivateTx sets the subscriber ACTIVE for durationDays starting at now,
// inside the caller's transaction.
func (s *Service) ActivateTx(ctx context.Context, tx *sqlx.Tx, id, planID uuid.UUID, now time.Time, durationDays int) (*Subscriber, error) {
	return s.repo.ActivateTx(ctx, tx, id, planID, now, durationDays)
}

// Cancel ends the signed-in user's subscription.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID) (*Subscriber, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.Cancel(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidStatusTransition
	}

	log.Info().Str("subscriber_id", sub.ID.String()).Msg("Subscription canceled")
	return s.repo.GetByID(ctx, sub.ID)
}

// SetStatus applies an admin status change.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Subscriber, error) {
	ok, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Distinguish a missing row from a disallowed transition
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidStatusTransition
	}

	log.Info().Str("subscriber_id", id.String()).Str("status", string(status)).Msg("Subscriber status changed")
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdatePushToken(ctx context.Context, userID uuid.UUID, token string) error {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.UpdatePushToken(ctx, sub.ID, token)
}
