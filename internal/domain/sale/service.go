package sale

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/clubebeneficios/clube-api/internal/domain/balance"
	"github.com/clubebeneficios/clube-api/internal/domain/notification"
	"github.com/clubebeneficios/clube-api/internal/domain/partner"
	"github.com/clubebeneficios/clube-api/internal/domain/subscriber"
	"github.com/clubebeneficios/clube-api/internal/domain/transaction"
	"github.com/clubebeneficios/clube-api/internal/pkg/database"
	"github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"
	"github.com/clubebeneficios/clube-api/internal/pkg/events"
	"github.com/clubebeneficios/clube-api/internal/pkg/metrics"
)

// Partners is the partner side of a sale.
type Partners interface {
	CheckEligible(ctx context.Context, id uuid.UUID) (*partner.Partner, error)
	IncrementSalesTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal) error
	DecrementSalesTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal) error
}

// Subscribers loads the buyer.
type Subscribers interface {
	GetByID(ctx context.Context, id uuid.UUID) (*subscriber.Subscriber, error)
}

// Balances is the balance store.
type Balances interface {
	GetPartnerCashback(ctx context.Context, subscriberID, partnerID uuid.UUID) (*balance.PartnerCashback, error)
	RedeemTx(ctx context.Context, tx *sqlx.Tx, subscriberID uuid.UUID, pointsUsed, cashbackGenerated, cashbackUsed decimal.Decimal) (*balance.Balance, error)
	AdjustTx(ctx context.Context, tx *sqlx.Tx, subscriberID uuid.UUID, pointsDelta, cashbackDelta decimal.Decimal) (*balance.Balance, error)
	AdjustPartnerCashbackTx(ctx context.Context, tx *sqlx.Tx, subscriberID, partnerID uuid.UUID, earned, used decimal.Decimal) error
	Invalidate(ctx context.Context, subscriberID uuid.UUID)
}

// Ledger is the transaction recorder.
type Ledger interface {
	RecordTx(ctx context.Context, tx *sqlx.Tx, t *transaction.Transaction) (uuid.UUID, error)
	LockByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*transaction.Transaction, error)
}

// Notifier sends the purchase receipt.
type Notifier interface {
	NotifySaleConfirmed(ctx context.Context, rcpt notification.Recipient, sale notification.SaleSummary) error
}

// Deps groups the stores the engine writes to.
type Deps struct {
	Partners    Partners
	Subscribers Subscribers
	Balances    Balances
	Ledger      Ledger
	Notifier    Notifier
	Events      events.Publisher
}

// Service is the redemption engine.
type Service struct {
	withTx database.TxRunner
	deps   Deps
	wg     sync.WaitGroup
}

// NewService creates the redemption engine. Notifier and Events may be nil.
func NewService(withTx database.TxRunner, deps Deps) *Service {
	return &Service{withTx: withTx, deps: deps}
}

// ConfirmSale applies a redemption at a partner: debit points, move
// cashback, record the purchase and bump partner counters, all in one
// transaction. Nothing is written when any step fails.
func (s *Service) ConfirmSale(ctx context.Context, partnerID uuid.UUID, req *ConfirmSaleRequest) (*SaleResult, error) {
	result, err := s.confirmSale(ctx, partnerID, req)
	if err != nil {
		var appErr *errorhandler.Error
		if errors.As(err, &appErr) && appErr.Kind != errorhandler.KindInternal {
			metrics.SalesRejected.WithLabelValues(appErr.Code).Inc()
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) confirmSale(ctx context.Context, partnerID uuid.UUID, req *ConfirmSaleRequest) (*SaleResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	finalAmount := req.FinalAmount()

	p, err := s.deps.Partners.CheckEligible(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	sub, err := s.deps.Subscribers.GetByID(ctx, req.SubscriberID)
	if err != nil {
		return nil, err
	}

	// Fail fast on the common rejections; the conditional update below
	// re-checks them under concurrency.
	switch {
	case !sub.IsActive():
		return nil, balance.ErrSubscriptionInactive
	case sub.Points.LessThan(req.PointsUsed):
		return nil, balance.ErrInsufficientPoints
	}
	if req.CashbackUsed.IsPositive() {
		ledger, err := s.deps.Balances.GetPartnerCashback(ctx, sub.ID, p.ID)
		if err != nil {
			return nil, err
		}
		if ledger.Balance.LessThan(req.CashbackUsed) {
			return nil, balance.ErrInsufficientBalance
		}
	}

	purchase := &transaction.Transaction{
		SubscriberID:      sub.ID,
		PartnerID:         uuid.NullUUID{UUID: p.ID, Valid: true},
		Amount:            req.Amount,
		PointsUsed:        req.PointsUsed,
		DiscountApplied:   req.Discount,
		CashbackGenerated: req.CashbackGenerated,
		CashbackUsed:      req.CashbackUsed,
		FinalAmount:       finalAmount,
		Type:              transaction.TypePurchase,
		Status:            transaction.StatusCompleted,
		Description:       "Compra em " + p.TradeName,
	}

	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.deps.Balances.RedeemTx(ctx, tx, sub.ID, req.PointsUsed, req.CashbackGenerated, req.CashbackUsed); err != nil {
			return err
		}
		if err := s.deps.Balances.AdjustPartnerCashbackTx(ctx, tx, sub.ID, p.ID, req.CashbackGenerated, req.CashbackUsed); err != nil {
			return err
		}
		if _, err := s.deps.Ledger.RecordTx(ctx, tx, purchase); err != nil {
			return err
		}
		return s.deps.Partners.IncrementSalesTx(ctx, tx, p.ID, req.Amount)
	})
	if err != nil {
		return nil, err
	}

	result := &SaleResult{
		TransactionID:     purchase.ID,
		Amount:            req.Amount,
		Discount:          req.Discount,
		PointsUsed:        req.PointsUsed,
		CashbackGenerated: req.CashbackGenerated,
		CashbackUsed:      req.CashbackUsed,
		FinalAmount:       finalAmount,
	}

	metrics.SalesConfirmed.Inc()
	metrics.PointsRedeemed.Add(req.PointsUsed.InexactFloat64())
	s.deps.Balances.Invalidate(ctx, sub.ID)

	log.Info().
		Str("transaction_id", purchase.ID.String()).
		Str("partner_id", p.ID.String()).
		Str("subscriber_id", sub.ID.String()).
		Str("final_amount", finalAmount.StringFixed(2)).
		Msg("Sale confirmed")

	s.afterCommit(ctx, func(ctx context.Context) {
		s.publish(ctx, events.TypeSaleConfirmed, sub.ID.String(), map[string]interface{}{
			"transactionId": purchase.ID,
			"partnerId":     p.ID,
			"subscriberId":  sub.ID,
			"amount":        req.Amount,
			"pointsUsed":    req.PointsUsed,
			"finalAmount":   finalAmount,
		})
		if s.deps.Notifier == nil {
			return
		}
		err := s.deps.Notifier.NotifySaleConfirmed(ctx, notification.SubscriberRecipient(sub, ""), notification.SaleSummary{
			TransactionID:     purchase.ID,
			PartnerID:         p.ID,
			PartnerName:       p.TradeName,
			Amount:            req.Amount,
			Discount:          req.Discount,
			PointsUsed:        req.PointsUsed,
			CashbackGenerated: req.CashbackGenerated,
			FinalAmount:       finalAmount,
		})
		if err != nil {
			metrics.DeliveryFailures.WithLabelValues("in_app").Inc()
			errorhandler.LogDelivery(ctx, "in_app", err, map[string]string{"transaction_id": purchase.ID.String()})
		}
	})

	return result, nil
}

func validate(req *ConfirmSaleRequest) error {
	switch {
	case req.SubscriberID == uuid.Nil:
		return ErrSubscriberRequired
	case !inCents(req.Amount, req.PointsUsed, req.Discount, req.CashbackGenerated, req.CashbackUsed):
		return ErrInvalidPrecision
	case !req.Amount.IsPositive():
		return ErrAmountNotPositive
	case req.PointsUsed.IsNegative(), req.Discount.IsNegative(),
		req.CashbackGenerated.IsNegative(), req.CashbackUsed.IsNegative():
		return ErrNegativeValue
	case req.FinalAmount().IsNegative():
		return ErrExceedsAmount
	}
	return nil
}

// inCents reports whether every value is stored as-is by a NUMERIC(14,2)
// column, so the ledger row and the balance update round identically.
func inCents(values ...decimal.Decimal) bool {
	for _, v := range values {
		if !v.Equal(v.Round(2)) {
			return false
		}
	}
	return true
}

// Refund reverses a completed purchase of the acting partner with a
// REFUND row pointing at it. Points come back; cashback generated by the
// purchase is taken back and cashback used is returned.
func (s *Service) Refund(ctx context.Context, partnerID, transactionID uuid.UUID, reason string) (*RefundResult, error) {
	var (
		orig   *transaction.Transaction
		refund *transaction.Transaction
	)

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		orig, err = s.deps.Ledger.LockByIDTx(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if !orig.PartnerID.Valid || orig.PartnerID.UUID != partnerID {
			return transaction.ErrTransactionNotFound
		}
		if orig.Type != transaction.TypePurchase || orig.Status != transaction.StatusCompleted {
			return ErrNotRefundable
		}

		description := "Estorno"
		if reason != "" {
			description = "Estorno: " + reason
		}
		refund = &transaction.Transaction{
			SubscriberID:      orig.SubscriberID,
			PartnerID:         orig.PartnerID,
			Amount:            orig.Amount,
			PointsUsed:        orig.PointsUsed,
			DiscountApplied:   orig.DiscountApplied,
			CashbackGenerated: orig.CashbackGenerated,
			CashbackUsed:      orig.CashbackUsed,
			FinalAmount:       orig.FinalAmount,
			Type:              transaction.TypeRefund,
			Status:            transaction.StatusCompleted,
			Description:       description,
			ReferenceID:       uuid.NullUUID{UUID: orig.ID, Valid: true},
		}
		if _, err := s.deps.Ledger.RecordTx(ctx, tx, refund); err != nil {
			return err
		}

		cashbackDelta := orig.CashbackUsed.Sub(orig.CashbackGenerated)
		if _, err := s.deps.Balances.AdjustTx(ctx, tx, orig.SubscriberID, orig.PointsUsed, cashbackDelta); err != nil {
			return err
		}
		if err := s.deps.Balances.AdjustPartnerCashbackTx(ctx, tx, orig.SubscriberID, partnerID,
			orig.CashbackGenerated.Neg(), orig.CashbackUsed.Neg()); err != nil {
			return err
		}
		return s.deps.Partners.DecrementSalesTx(ctx, tx, partnerID, orig.Amount)
	})
	if err != nil {
		return nil, err
	}

	s.deps.Balances.Invalidate(ctx, orig.SubscriberID)
	log.Info().
		Str("transaction_id", orig.ID.String()).
		Str("refund_id", refund.ID.String()).
		Str("partner_id", partnerID.String()).
		Msg("Sale refunded")

	s.afterCommit(ctx, func(ctx context.Context) {
		s.publish(ctx, events.TypeSaleRefunded, orig.SubscriberID.String(), map[string]interface{}{
			"refundId":      refund.ID,
			"transactionId": orig.ID,
			"partnerId":     partnerID,
			"subscriberId":  orig.SubscriberID,
			"amount":        orig.Amount,
		})
	})

	return &RefundResult{
		RefundID:       refund.ID,
		TransactionID:  orig.ID,
		PointsRestored: orig.PointsUsed,
		CashbackDelta:  orig.CashbackUsed.Sub(orig.CashbackGenerated),
	}, nil
}

// GrantMonthlyPoints credits points with a MONTHLY_POINTS ledger row in
// its own transaction.
func (s *Service) GrantMonthlyPoints(ctx context.Context, subscriberID uuid.UUID, points decimal.Decimal, description string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		id, err = s.GrantMonthlyPointsTx(ctx, tx, subscriberID, points, description)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	s.deps.Balances.Invalidate(ctx, subscriberID)
	return id, nil
}

// GrantMonthlyPointsTx is GrantMonthlyPoints inside the caller's transaction.
// The caller invalidates the balance cache after commit.
func (s *Service) GrantMonthlyPointsTx(ctx context.Context, tx *sqlx.Tx, subscriberID uuid.UUID, points decimal.Decimal, description string) (uuid.UUID, error) {
	if !points.IsPositive() {
		return uuid.Nil, ErrInvalidGrant
	}
	if !inCents(points) {
		return uuid.Nil, ErrInvalidPrecision
	}
	if _, err := s.deps.Balances.AdjustTx(ctx, tx, subscriberID, points, decimal.Zero); err != nil {
		return uuid.Nil, err
	}
	return s.deps.Ledger.RecordTx(ctx, tx, &transaction.Transaction{
		SubscriberID: subscriberID,
		Amount:       points,
		Type:         transaction.TypeMonthlyPoints,
		Status:       transaction.StatusCompleted,
		Description:  description,
	})
}

// Invalidate drops the cached balance of a subscriber.
func (s *Service) Invalidate(ctx context.Context, subscriberID uuid.UUID) {
	s.deps.Balances.Invalidate(ctx, subscriberID)
}

// afterCommit runs best-effort side effects detached from the request.
func (s *Service) afterCommit(ctx context.Context, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
}

func (s *Service) publish(ctx context.Context, eventType, key string, payload interface{}) {
	if s.deps.Events == nil {
		return
	}
	if err := s.deps.Events.Publish(ctx, eventType, key, payload); err != nil {
		metrics.DeliveryFailures.WithLabelValues("events").Inc()
		errorhandler.LogDelivery(ctx, "events", fmt.Errorf("%s: %w", eventType, err), map[string]string{"key": key})
	}
}

// Wait blocks until pending post-commit work has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
