package balance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/clubebeneficios/clube-api/internal/pkg/database"
)

// Service is the balance store: subscriber points, aggregate cashback and
// the per-partner cashback ledger.
type Service struct {
	repo  Repository
	db    database.TxBeginner
	cache *cache
}

// NewService creates balance service. rdb may be nil.
func NewService(repo Repository, db database.TxBeginner, rdb *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{
		repo:  repo,
		db:    db,
		cache: &cache{client: rdb, ttl: cacheTTL},
	}
}

// GetBalance returns the subscriber's points and cashback.
func (s *Service) GetBalance(ctx context.Context, subscriberID uuid.UUID) (*Balance, error) {
	if b, ok := s.cache.get(ctx, subscriberID); ok {
		return b, nil
	}
	b, err := s.repo.Get(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, subscriberID, b)
	return b, nil
}

// Adjust applies signed deltas in its own transaction.
func (s *Service) Adjust(ctx context.Context, subscriberID uuid.UUID, pointsDelta, cashbackDelta decimal.Decimal) (*Balance, error) {
	var b *Balance
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		b, err = s.AdjustTx(ctx, tx, subscriberID, pointsDelta, cashbackDelta)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, subscriberID)
	return b, nil
}

// AdjustTx applies signed deltas inside the caller's transaction. A result
// below zero on either balance is ErrInsufficientBalance.
func (s *Service) AdjustTx(ctx context.Context, tx *sqlx.Tx, subscriberID uuid.UUID, pointsDelta, cashbackDelta decimal.Decimal) (*Balance, error) {
	b, ok, err := s.repo.AdjustTx(ctx, tx, subscriberID, pointsDelta, cashbackDelta)
	if err != nil {
		return nil, err
	}
	if ok {
		return b, nil
	}
	if _, err := s.repo.SnapshotTx(ctx, tx, subscriberID); err != nil {
		return nil, err
	}
	return nil, ErrInsufficientBalance
}

// RedeemTx debits pointsUsed and moves cashback by generated-used for an
// ACTIVE subscriber, all in one conditional update. Cashback generated by
// the sale cannot pay for the same sale. Rejections are classified from a
// re-read inside the same transaction.
func (s *Service) RedeemTx(ctx context.Context, tx *sqlx.Tx, subscriberID uuid.UUID, pointsUsed, cashbackGenerated, cashbackUsed decimal.Decimal) (*Balance, error) {
	b, ok, err := s.repo.RedeemTx(ctx, tx, subscriberID, pointsUsed, cashbackGenerated, cashbackUsed)
	if err != nil {
		return nil, err
	}
	if ok {
		return b, nil
	}

	snap, err := s.repo.SnapshotTx(ctx, tx, subscriberID)
	if err != nil {
		return nil, err
	}
	return nil, classify(snap, pointsUsed)
}

func classify(snap *Snapshot, pointsUsed decimal.Decimal) error {
	switch {
	case snap.Status != "ACTIVE":
		return ErrSubscriptionInactive
	case snap.Points.LessThan(pointsUsed):
		return ErrInsufficientPoints
	default:
		return ErrInsufficientBalance
	}
}

// Invalidate drops the cached balance. Call after commit.
func (s *Service) Invalidate(ctx context.Context, subscriberID uuid.UUID) {
	s.cache.invalidate(ctx, subscriberID)
}

// GetPartnerCashback returns the ledger at one partner; zero when none exists.
func (s *Service) GetPartnerCashback(ctx context.Context, subscriberID, partnerID uuid.UUID) (*PartnerCashback, error) {
	return s.repo.GetPartnerCashback(ctx, subscriberID, partnerID)
}

func (s *Service) ListPartnerCashback(ctx context.Context, subscriberID uuid.UUID) ([]PartnerCashback, error) {
	return s.repo.ListPartnerCashback(ctx, subscriberID)
}

// AdjustPartnerCashbackTx records earned and used cashback at a partner.
// Negative values reverse a previous movement.
func (s *Service) AdjustPartnerCashbackTx(ctx context.Context, tx *sqlx.Tx, subscriberID, partnerID uuid.UUID, earned, used decimal.Decimal) error {
	if earned.IsZero() && used.IsZero() {
		return nil
	}
	ok, err := s.repo.AdjustPartnerCashbackTx(ctx, tx, subscriberID, partnerID, earned, used)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientBalance
	}
	return nil
}
