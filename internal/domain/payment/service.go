package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/clubebeneficios/clube-api/internal/domain/notification"
	"github.com/clubebeneficios/clube-api/internal/domain/plan"
	"github.com/clubebeneficios/clube-api/internal/domain/subscriber"
	"github.com/clubebeneficios/clube-api/internal/pkg/clock"
	"github.com/clubebeneficios/clube-api/internal/pkg/database"
	"github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"
	"github.com/clubebeneficios/clube-api/internal/pkg/events"
	"github.com/clubebeneficios/clube-api/internal/pkg/metrics"
	gateway "github.com/clubebeneficios/clube-api/internal/pkg/payment"
)

// Subscribers resolves and activates the buyer.
type Subscribers interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*subscriber.Subscriber, error)
	ActivateTx(ctx context.Context, tx *sqlx.Tx, id, planID uuid.UUID, now time.Time, durationDays int) (*subscriber.Subscriber, error)
}

// Plans is the catalog side of a purchase.
type Plans interface {
	GetPurchasable(ctx context.Context, id uuid.UUID) (*plan.Plan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error)
	MonthlyPoints(ctx context.Context, planID uuid.UUID) (decimal.Decimal, error)
}

// PointsGranter credits the plan's monthly points on activation.
type PointsGranter interface {
	GrantMonthlyPointsTx(ctx context.Context, tx *sqlx.Tx, subscriberID uuid.UUID, points decimal.Decimal, description string) (uuid.UUID, error)
	Invalidate(ctx context.Context, subscriberID uuid.UUID)
}

// Notifier welcomes a newly activated subscriber.
type Notifier interface {
	NotifyNewSubscriber(ctx context.Context, rcpt notification.Recipient) error
}

// Config wires the payment service.
type Config struct {
	Subscribers Subscribers
	Plans       Plans
	Points      PointsGranter
	Notifier    Notifier
	Events      events.Publisher
	Providers   *gateway.Registry
	Clock       clock.Clock
	FrontendURL string
	BackendURL  string
}

// Service handles plan purchases
type Service struct {
	repo   Repository
	withTx database.TxRunner
	cfg    Config
	wg     sync.WaitGroup
}

// NewService creates payment service
func NewService(repo Repository, withTx database.TxRunner, cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Providers == nil {
		cfg.Providers = gateway.NewRegistry()
	}
	return &Service{repo: repo, withTx: withTx, cfg: cfg}
}

// Checkout creates a pending payment for the caller's subscriber and asks
// the gateway for a payment URL.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*CheckoutResponse, error) {
	provider, err := s.cfg.Providers.Get(req.Provider)
	if err != nil {
		return nil, ErrUnsupportedProvider
	}

	sub, err := s.cfg.Subscribers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.Status == subscriber.StatusSuspended {
		return nil, subscriber.ErrCannotActivate
	}

	p, err := s.cfg.Plans.GetPurchasable(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	pay := &Payment{
		ID:           uuid.New(),
		SubscriberID: sub.ID,
		PlanID:       p.ID,
		Amount:       p.Price,
		Provider:     provider.Name(),
		Status:       StatusPending,
	}
	if err := s.repo.Create(ctx, pay); err != nil {
		return nil, err
	}

	checkout, err := provider.CreateCheckout(ctx, gateway.CheckoutRequest{
		PaymentID:   pay.ID.String(),
		InvoiceID:   pay.InvoiceID,
		Amount:      pay.Amount,
		Description: "Assinatura " + p.Name,
		Email:       sub.Email,
		ReturnURL:   strings.TrimRight(s.cfg.FrontendURL, "/") + "/assinatura/retorno",
		CallbackURL: strings.TrimRight(s.cfg.BackendURL, "/") + "/webhooks/" + provider.Name(),
	})
	if err != nil {
		log.Error().Err(err).Str("payment_id", pay.ID.String()).Str("provider", provider.Name()).Msg("checkout creation failed")
		return nil, fmt.Errorf("%w: create checkout: %v", ErrInternal, err)
	}
	if checkout.ExternalID != "" {
		if err := s.repo.SetExternalID(ctx, pay.ID, checkout.ExternalID); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("payment_id", pay.ID.String()).
		Int64("invoice_id", pay.InvoiceID).
		Str("provider", provider.Name()).
		Msg("checkout created")

	return &CheckoutResponse{
		PaymentID:  pay.ID,
		InvoiceID:  pay.InvoiceID,
		Amount:     pay.Amount,
		Provider:   provider.Name(),
		PaymentURL: checkout.PaymentURL,
	}, nil
}

// ListMine returns the caller's payments, newest first.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Payment, error) {
	sub, err := s.cfg.Subscribers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBySubscriber(ctx, sub.ID, limit, offset)
}

// Provider resolves a registered gateway by name.
func (s *Service) Provider(name string) (gateway.Provider, error) {
	p, err := s.cfg.Providers.Get(name)
	if err != nil {
		return nil, ErrUnsupportedProvider
	}
	return p, nil
}

// HandleWebhook applies a verified gateway callback. Completing a payment
// activates the plan and grants its monthly points in the same
// transaction; repeated callbacks are no-ops.
func (s *Service) HandleWebhook(ctx context.Context, event *gateway.WebhookEvent) (*Payment, error) {
	switch event.Status {
	case gateway.StatusCompleted:
		return s.complete(ctx, event)
	case gateway.StatusFailed:
		return s.fail(ctx, event)
	default:
		return s.lookup(ctx, event)
	}
}

func (s *Service) complete(ctx context.Context, event *gateway.WebhookEvent) (*Payment, error) {
	var (
		pay       *Payment
		activated *subscriber.Subscriber
		planName  string
		applied   bool
	)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		pay, err = s.lockForEvent(ctx, tx, event)
		if err != nil {
			return err
		}
		if pay.Status == StatusCompleted {
			return nil
		}
		// Every provider reports the paid amount; a callback without one is rejected.
		if !event.Amount.Equal(pay.Amount) {
			return ErrAmountMismatch
		}

		p, err := s.cfg.Plans.GetByID(ctx, pay.PlanID)
		if err != nil {
			return err
		}
		planName = p.Name

		now := s.cfg.Clock.Now()
		if err := s.repo.MarkCompletedTx(ctx, tx, pay.ID, event.ExternalID, now); err != nil {
			return err
		}
		activated, err = s.cfg.Subscribers.ActivateTx(ctx, tx, pay.SubscriberID, pay.PlanID, now, p.DurationDays)
		if err != nil {
			return err
		}

		points, err := s.cfg.Plans.MonthlyPoints(ctx, pay.PlanID)
		if err != nil {
			return err
		}
		if points.IsPositive() && s.cfg.Points != nil {
			if _, err := s.cfg.Points.GrantMonthlyPointsTx(ctx, tx, pay.SubscriberID, points, "Pontos do plano "+p.Name); err != nil {
				return err
			}
		}

		pay.Status = StatusCompleted
		applied = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAmountMismatch) {
			log.Warn().Str("provider", event.Provider).Str("amount", event.Amount.String()).Msg("webhook amount mismatch")
		}
		return nil, err
	}
	if !applied {
		log.Info().Str("payment_id", pay.ID.String()).Msg("duplicate payment webhook ignored")
		return pay, nil
	}

	if s.cfg.Points != nil {
		s.cfg.Points.Invalidate(ctx, pay.SubscriberID)
	}
	metrics.SubscriptionsActivated.Inc()
	log.Info().
		Str("payment_id", pay.ID.String()).
		Str("subscriber_id", pay.SubscriberID.String()).
		Str("plan", planName).
		Msg("subscription activated")

	s.afterCommit(ctx, func(ctx context.Context) {
		s.publish(ctx, activated.ID.String(), map[string]interface{}{
			"subscriberId": activated.ID,
			"planId":       pay.PlanID,
			"paymentId":    pay.ID,
			"planEndDate":  activated.PlanEndDate,
		})
		if s.cfg.Notifier == nil {
			return
		}
		if err := s.cfg.Notifier.NotifyNewSubscriber(ctx, notification.SubscriberRecipient(activated, planName)); err != nil {
			errorhandler.LogDelivery(ctx, "notification", err, map[string]string{"subscriber_id": activated.ID.String()})
		}
	})
	return pay, nil
}

func (s *Service) fail(ctx context.Context, event *gateway.WebhookEvent) (*Payment, error) {
	var pay *Payment
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		pay, err = s.lockForEvent(ctx, tx, event)
		if err != nil {
			return err
		}
		if pay.Status != StatusPending {
			return nil
		}
		if err := s.repo.MarkFailedTx(ctx, tx, pay.ID); err != nil {
			return err
		}
		pay.Status = StatusFailed
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("payment_id", pay.ID.String()).Str("status", string(pay.Status)).Msg("payment failure received")
	return pay, nil
}

func (s *Service) lookup(ctx context.Context, event *gateway.WebhookEvent) (*Payment, error) {
	var pay *Payment
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		pay, err = s.lockForEvent(ctx, tx, event)
		return err
	})
	return pay, err
}

func (s *Service) lockForEvent(ctx context.Context, tx *sqlx.Tx, event *gateway.WebhookEvent) (*Payment, error) {
	var (
		pay *Payment
		err error
	)
	switch {
	case event.PaymentID != "":
		id, perr := uuid.Parse(event.PaymentID)
		if perr != nil {
			return nil, ErrPaymentNotFound
		}
		pay, err = s.repo.LockByIDTx(ctx, tx, id)
	case event.InvoiceID > 0:
		pay, err = s.repo.LockByInvoiceIDTx(ctx, tx, event.InvoiceID)
	default:
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if pay.Provider != event.Provider {
		return nil, ErrPaymentNotFound
	}
	return pay, nil
}

func (s *Service) afterCommit(ctx context.Context, fn func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
}

func (s *Service) publish(ctx context.Context, key string, payload interface{}) {
	if s.cfg.Events == nil {
		return
	}
	if err := s.cfg.Events.Publish(ctx, events.TypeSubscriptionActivated, key, payload); err != nil {
		metrics.DeliveryFailures.WithLabelValues("events").Inc()
		errorhandler.LogDelivery(ctx, "events", err, map[string]string{"key": key})
	}
}

// Wait blocks until pending post-commit work has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
