package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubebeneficios/clube-api/internal/pkg/clock"
	"github.com/clubebeneficios/clube-api/internal/pkg/email"
	"github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"
	"github.com/clubebeneficios/clube-api/internal/pkg/metrics"
	"github.com/clubebeneficios/clube-api/internal/pkg/push"
)

// dedupWindow is how far back a lifecycle reminder counts as already sent.
const dedupWindow = 24 * time.Hour

const dateLayout = "02/01/2006"

// Realtime pushes an event to the user's open websocket connections.
type Realtime interface {
	SendToUserJSON(userID uuid.UUID, payload any) error
}

// Mailer queues a templated email.
type Mailer interface {
	Queue(to, toName, templateName, subject string, data interface{})
}

// Pusher sends a mobile push notification.
type Pusher interface {
	Send(ctx context.Context, msg *push.Message) error
}

// Channels are the optional delivery channels next to the in-app row.
type Channels struct {
	Realtime    Realtime
	Mailer      Mailer
	Pusher      Pusher
	Clock       clock.Clock
	Location    *time.Location
	FrontendURL string
}

// Service stores in-app notifications and fans them out to the other channels.
type Service struct {
	repo     Repository
	channels Channels
}

// NewService creates notification service
func NewService(repo Repository, channels Channels) *Service {
	if channels.Clock == nil {
		channels.Clock = clock.System{}
	}
	if channels.Location == nil {
		channels.Location = time.UTC
	}
	return &Service{repo: repo, channels: channels}
}

// SaleSummary is what the subscriber sees after a purchase.
type SaleSummary struct {
	TransactionID     uuid.UUID
	PartnerID         uuid.UUID
	PartnerName       string
	Amount            decimal.Decimal
	Discount          decimal.Decimal
	PointsUsed        decimal.Decimal
	CashbackGenerated decimal.Decimal
	FinalAmount       decimal.Decimal
}

type emailData struct {
	Name              string
	PlanName          string
	PlanEndDate       string
	Points            string
	RenewURL          string
	DashboardURL      string
	PartnerName       string
	Amount            string
	Discount          string
	PointsUsed        string
	CashbackGenerated string
	FinalAmount       string
}

type message struct {
	notifType Type
	title     string
	body      string
	data      *Data
	template  string
	subject   string
	email     emailData
}

// NotifyExpiringSoon emits the 7-day reminder. It reports false when the
// reminder was already emitted.
func (s *Service) NotifyExpiringSoon(ctx context.Context, rcpt Recipient) (bool, error) {
	return s.emitOnce(ctx, rcpt, s.lifecycleMessage(rcpt, TypeExpiringSoon,
		"Sua assinatura vence em 7 dias",
		"Renove para continuar usando seus pontos e cashback.",
		email.TemplateExpiringSoon))
}

// NotifyExpiringToday emits the last-day reminder.
func (s *Service) NotifyExpiringToday(ctx context.Context, rcpt Recipient) (bool, error) {
	return s.emitOnce(ctx, rcpt, s.lifecycleMessage(rcpt, TypeExpiringToday,
		"Sua assinatura vence hoje",
		"Hoje é o último dia do seu plano.",
		email.TemplateExpiringToday))
}

// NotifyExpired tells the subscriber the plan has expired.
func (s *Service) NotifyExpired(ctx context.Context, rcpt Recipient) (bool, error) {
	return s.emitOnce(ctx, rcpt, s.lifecycleMessage(rcpt, TypeExpired,
		"Sua assinatura expirou",
		"Seus benefícios ficam suspensos até a renovação.",
		email.TemplateExpired))
}

// NotifyNewSubscriber welcomes a subscriber whose plan was just activated.
func (s *Service) NotifyNewSubscriber(ctx context.Context, rcpt Recipient) error {
	msg := s.lifecycleMessage(rcpt, TypeNewSubscriber,
		"Bem-vindo(a) ao clube!",
		"Sua assinatura está ativa.",
		email.TemplateWelcome)
	msg.subject = "Bem-vindo(a) ao Clube de Benefícios"
	return s.emit(ctx, rcpt, msg)
}

// NotifySaleConfirmed sends the purchase receipt.
func (s *Service) NotifySaleConfirmed(ctx context.Context, rcpt Recipient, sale SaleSummary) error {
	txID, partnerID := sale.TransactionID, sale.PartnerID
	msg := message{
		notifType: TypeSaleConfirmed,
		title:     "Compra confirmada em " + sale.PartnerName,
		body:      "Total pago: R$ " + sale.FinalAmount.StringFixed(2),
		data: &Data{
			TransactionID: &txID,
			PartnerID:     &partnerID,
			PartnerName:   sale.PartnerName,
			FinalAmount:   sale.FinalAmount.StringFixed(2),
		},
		template: email.TemplateSaleConfirmed,
		email: emailData{
			Name:              rcpt.Name,
			PartnerName:       sale.PartnerName,
			Amount:            sale.Amount.StringFixed(2),
			Discount:          sale.Discount.StringFixed(2),
			PointsUsed:        sale.PointsUsed.String(),
			CashbackGenerated: sale.CashbackGenerated.StringFixed(2),
			FinalAmount:       sale.FinalAmount.StringFixed(2),
		},
	}
	msg.subject = msg.title
	return s.emit(ctx, rcpt, msg)
}

func (s *Service) lifecycleMessage(rcpt Recipient, t Type, title, body, template string) message {
	endDate := ""
	if rcpt.PlanEndDate != nil {
		endDate = rcpt.PlanEndDate.In(s.channels.Location).Format(dateLayout)
	}
	return message{
		notifType: t,
		title:     title,
		body:      body,
		data:      &Data{PlanEndDate: endDate, PlanName: rcpt.PlanName},
		template:  template,
		subject:   title,
		email: emailData{
			Name:         rcpt.Name,
			PlanName:     rcpt.PlanName,
			PlanEndDate:  endDate,
			Points:       rcpt.Points,
			RenewURL:     s.channels.FrontendURL + "/planos",
			DashboardURL: s.channels.FrontendURL + "/minha-conta",
		},
	}
}

func (s *Service) build(rcpt Recipient, msg message) *Notification {
	now := s.channels.Clock.Now()
	n := &Notification{
		ID:         uuid.New(),
		UserID:     rcpt.UserID,
		Type:       msg.notifType,
		Title:      msg.title,
		Body:       msg.body,
		DateBucket: clock.StartOfDay(now, s.channels.Location),
		CreatedAt:  now,
	}
	if rcpt.SubscriberID != uuid.Nil {
		n.SubscriberID = uuid.NullUUID{UUID: rcpt.SubscriberID, Valid: true}
	}
	n.SetData(msg.data)
	return n
}

// emitOnce writes a lifecycle reminder unless one was written in the last
// 24 hours or already exists for today's bucket. Delivery on the other
// channels happens only after the row is written.
func (s *Service) emitOnce(ctx context.Context, rcpt Recipient, msg message) (bool, error) {
	since := s.channels.Clock.Now().Add(-dedupWindow)
	exists, err := s.repo.ExistsSince(ctx, rcpt.SubscriberID, msg.notifType, since)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	n := s.build(rcpt, msg)
	created, err := s.repo.CreateOnce(ctx, n)
	if err != nil || !created {
		return false, err
	}

	s.deliver(ctx, rcpt, n, msg)
	return true, nil
}

func (s *Service) emit(ctx context.Context, rcpt Recipient, msg message) error {
	n := s.build(rcpt, msg)
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.deliver(ctx, rcpt, n, msg)
	return nil
}

// deliver is best effort: failures are logged and counted, never returned.
func (s *Service) deliver(ctx context.Context, rcpt Recipient, n *Notification, msg message) {
	if s.channels.Realtime != nil {
		event := map[string]interface{}{"type": "notification", "notification": n}
		if err := s.channels.Realtime.SendToUserJSON(n.UserID, event); err != nil {
			s.deliveryFailed(ctx, "realtime", err, n)
		}
	}

	if s.channels.Mailer != nil && rcpt.Email != "" && msg.template != "" {
		s.channels.Mailer.Queue(rcpt.Email, rcpt.Name, msg.template, msg.subject, msg.email)
	}

	if s.channels.Pusher != nil && rcpt.PushToken != "" {
		err := s.channels.Pusher.Send(ctx, &push.Message{
			Token: rcpt.PushToken,
			Title: n.Title,
			Body:  n.Body,
			Data: map[string]string{
				"notification_id": n.ID.String(),
				"type":            string(n.Type),
			},
		})
		if err != nil {
			s.deliveryFailed(ctx, "push", err, n)
		}
	}
}

func (s *Service) deliveryFailed(ctx context.Context, channel string, err error, n *Notification) {
	metrics.DeliveryFailures.WithLabelValues(channel).Inc()
	errorhandler.LogDelivery(ctx, channel, err, map[string]string{
		"notification_id": n.ID.String(),
		"user_id":         n.UserID.String(),
		"type":            string(n.Type),
	})
}

// List returns notifications for user
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// UnreadCount returns unread count
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnreadByUser(ctx, userID)
}

// MarkAsRead marks one of the user's notifications as read
func (s *Service) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	ok, err := s.repo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllAsRead marks all notifications as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}
