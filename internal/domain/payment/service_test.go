package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/clubebeneficios/clube-api/internal/domain/notification"
	"github.com/clubebeneficios/clube-api/internal/domain/plan"
	"github.com/clubebeneficios/clube-api/internal/domain/subscriber"
	"github.com/clubebeneficios/clube-api/internal/middleware"
	"github.com/clubebeneficios/clube-api/internal/pkg/clock"
	gateway "github.com/clubebeneficios/clube-api/internal/pkg/payment"
)

type store struct {
	mu       sync.Mutex
	payments map[uuid.UUID]Payment
	nextInv  int64
	sub      subscriber.Subscriber
	plan     plan.Plan
	points   decimal.Decimal
	granted  []decimal.Decimal
	failMark error
	welcomed int
}

func newStore(status subscriber.Status) *store {
	return &store{
		payments: map[uuid.UUID]Payment{},
		nextInv:  1000,
		sub:      subscriber.Subscriber{ID: uuid.New(), UserID: uuid.New(), Name: "Ana", Email: "ana@example.com", Status: status},
		plan:     plan.Plan{ID: uuid.New(), Name: "Ouro", Price: decimal.RequireFromString("49.90"), DurationDays: 30, Active: true},
		points:   decimal.NewFromInt(100),
	}
}

func (s *store) runTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	s.mu.Lock()
	payments := make(map[uuid.UUID]Payment, len(s.payments))
	for k, v := range s.payments {
		payments[k] = v
	}
	sub := s.sub
	granted := append([]decimal.Decimal(nil), s.granted...)
	s.mu.Unlock()

	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.payments, s.sub, s.granted = payments, sub, granted
		s.mu.Unlock()
		return err
	}
	return nil
}

// Repository

func (s *store) Create(ctx context.Context, p *Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextInv++
	p.InvoiceID = s.nextInv
	p.CreatedAt = time.Now()
	s.payments[p.ID] = *p
	return nil
}

func (s *store) SetExternalID(ctx context.Context, id uuid.UUID, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.payments[id]
	p.ExternalID.String, p.ExternalID.Valid = externalID, true
	s.payments[id] = p
	return nil
}

func (s *store) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return &p, nil
}

func (s *store) ListBySubscriber(ctx context.Context, subscriberID uuid.UUID, limit, offset int) ([]Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Payment
	for _, p := range s.payments {
		if p.SubscriberID == subscriberID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *store) LockByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Payment, error) {
	return s.GetByID(ctx, id)
}

func (s *store) LockByInvoiceIDTx(ctx context.Context, tx *sqlx.Tx, invoiceID int64) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.InvoiceID == invoiceID {
			return &p, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (s *store) MarkCompletedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, externalID string, paidAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.payments[id]
	p.Status = StatusCompleted
	p.PaidAt.Time, p.PaidAt.Valid = paidAt, true
	s.payments[id] = p
	return nil
}

func (s *store) MarkFailedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.payments[id]
	p.Status = StatusFailed
	s.payments[id] = p
	return nil
}

// Subscribers

func (s *store) GetByUserID(ctx context.Context, userID uuid.UUID) (*subscriber.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID != s.sub.UserID {
		return nil, subscriber.ErrSubscriberNotFound
	}
	sub := s.sub
	return &sub, nil
}

func (s *store) ActivateTx(ctx context.Context, tx *sqlx.Tx, id, planID uuid.UUID, now time.Time, durationDays int) (*subscriber.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub.Status == subscriber.StatusSuspended {
		return nil, subscriber.ErrCannotActivate
	}
	end := now.AddDate(0, 0, durationDays)
	s.sub.Status = subscriber.StatusActive
	s.sub.PlanID = uuid.NullUUID{UUID: planID, Valid: true}
	s.sub.PlanStartDate, s.sub.PlanEndDate = &now, &end
	sub := s.sub
	return &sub, nil
}

// Plans

func (s *store) GetPurchasable(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	if id != s.plan.ID {
		return nil, plan.ErrPlanNotFound
	}
	p := s.plan
	return &p, nil
}

func (s *store) GetPlan(id uuid.UUID) (*plan.Plan, error) {
	return s.GetPurchasable(context.Background(), id)
}

func (s *store) MonthlyPoints(ctx context.Context, planID uuid.UUID) (decimal.Decimal, error) {
	return s.points, nil
}

// PointsGranter

func (s *store) GrantMonthlyPointsTx(ctx context.Context, tx *sqlx.Tx, subscriberID uuid.UUID, points decimal.Decimal, description string) (uuid.UUID, error) {
	if s.failMark != nil {
		return uuid.Nil, s.failMark
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.granted = append(s.granted, points)
	s.sub.Points = s.sub.Points.Add(points)
	return uuid.New(), nil
}

func (s *store) Invalidate(ctx context.Context, subscriberID uuid.UUID) {}

// Notifier

func (s *store) NotifyNewSubscriber(ctx context.Context, rcpt notification.Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.welcomed++
	return nil
}

// plans adapts store to Plans; GetByID is taken by Repository.
type plans struct{ *store }

func (p plans) GetByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	return p.GetPlan(id)
}

type fakeGateway struct {
	last gateway.CheckoutRequest
}

func (g *fakeGateway) Name() string { return gateway.ProviderKaspi }

func (g *fakeGateway) CreateCheckout(ctx context.Context, req gateway.CheckoutRequest) (*gateway.Checkout, error) {
	g.last = req
	return &gateway.Checkout{ExternalID: "ext-" + req.PaymentID, PaymentURL: "https://pay.example.com/" + req.PaymentID}, nil
}

func (g *fakeGateway) ParseWebhook(r *http.Request) (*gateway.WebhookEvent, error) {
	if r.Header.Get("X-Signature") != "ok" {
		return nil, gateway.ErrInvalidSignature
	}
	return &gateway.WebhookEvent{
		Provider:  gateway.ProviderKaspi,
		PaymentID: r.URL.Query().Get("payment"),
		Amount:    decimal.RequireFromString(r.URL.Query().Get("amount")),
		Status:    gateway.StatusCompleted,
	}, nil
}

func (g *fakeGateway) Acknowledge(w http.ResponseWriter, event *gateway.WebhookEvent) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func newTestService(st *store) (*Service, *fakeGateway) {
	gw := &fakeGateway{}
	svc := NewService(st, st.runTx, Config{
		Subscribers: st,
		Plans:       plans{st},
		Points:      st,
		Notifier:    st,
		Providers:   gateway.NewRegistry(gw),
		Clock:       clock.NewManual(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)),
		FrontendURL: "https://app.example.com/",
		BackendURL:  "https://api.example.com",
	})
	return svc, gw
}

func checkout(t *testing.T, svc *Service, st *store) *CheckoutResponse {
	t.Helper()
	out, err := svc.Checkout(context.Background(), st.sub.UserID, &CheckoutRequest{PlanID: st.plan.ID, Provider: "kaspi"})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return out
}

func TestCheckoutCreatesPendingPayment(t *testing.T) {
	st := newStore(subscriber.StatusPending)
	svc, gw := newTestService(st)

	out := checkout(t, svc, st)

	if !out.Amount.Equal(st.plan.Price) {
		t.Fatalf("expected plan price, got %s", out.Amount)
	}
	p := st.payments[out.PaymentID]
	if p.Status != StatusPending || p.ExternalID.String != "ext-"+out.PaymentID.String() {
		t.Fatalf("unexpected stored payment %+v", p)
	}
	if gw.last.CallbackURL != "https://api.example.com/webhooks/kaspi" {
		t.Fatalf("unexpected callback url %q", gw.last.CallbackURL)
	}
	if !strings.HasPrefix(gw.last.ReturnURL, "https://app.example.com/") || strings.Contains(gw.last.ReturnURL, "//assinatura") {
		t.Fatalf("unexpected return url %q", gw.last.ReturnURL)
	}
}

func TestCheckoutRejectsUnknownProviderAndSuspended(t *testing.T) {
	st := newStore(subscriber.StatusSuspended)
	svc, _ := newTestService(st)

	_, err := svc.Checkout(context.Background(), st.sub.UserID, &CheckoutRequest{PlanID: st.plan.ID, Provider: "robokassa"})
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
	_, err = svc.Checkout(context.Background(), st.sub.UserID, &CheckoutRequest{PlanID: st.plan.ID, Provider: "kaspi"})
	if !errors.Is(err, subscriber.ErrCannotActivate) {
		t.Fatalf("expected ErrCannotActivate, got %v", err)
	}
	if len(st.payments) != 0 {
		t.Fatal("no payment may be created")
	}
}

func TestCompletedWebhookActivatesOnce(t *testing.T) {
	st := newStore(subscriber.StatusPending)
	svc, _ := newTestService(st)
	out := checkout(t, svc, st)

	event := &gateway.WebhookEvent{
		Provider:  gateway.ProviderKaspi,
		PaymentID: out.PaymentID.String(),
		Amount:    decimal.RequireFromString("49.9"),
		Status:    gateway.StatusCompleted,
	}
	for i := 0; i < 2; i++ {
		p, err := svc.HandleWebhook(context.Background(), event)
		if err != nil {
			t.Fatalf("webhook %d: %v", i, err)
		}
		if !p.IsPaid() {
			t.Fatalf("webhook %d: expected completed, got %s", i, p.Status)
		}
	}
	svc.Wait()

	if st.sub.Status != subscriber.StatusActive {
		t.Fatalf("expected ACTIVE, got %s", st.sub.Status)
	}
	if want := time.Date(2026, 4, 9, 12, 0, 0, 0, time.UTC); !st.sub.PlanEndDate.Equal(want) {
		t.Fatalf("expected end date %s, got %s", want, st.sub.PlanEndDate)
	}
	if len(st.granted) != 1 || !st.sub.Points.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("points must be granted exactly once, got %v", st.granted)
	}
	if st.welcomed != 1 {
		t.Fatalf("expected one welcome notification, got %d", st.welcomed)
	}
}

func TestCompletedWebhookRollsBackOnGrantFailure(t *testing.T) {
	st := newStore(subscriber.StatusPending)
	svc, _ := newTestService(st)
	out := checkout(t, svc, st)
	st.failMark = errors.New("balance unavailable")

	_, err := svc.HandleWebhook(context.Background(), &gateway.WebhookEvent{
		Provider:  gateway.ProviderKaspi,
		PaymentID: out.PaymentID.String(),
		Amount:    decimal.RequireFromString("49.9"),
		Status:    gateway.StatusCompleted,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if st.payments[out.PaymentID].Status != StatusPending || st.sub.Status != subscriber.StatusPending {
		t.Fatal("payment and activation must roll back together")
	}
}

func TestWebhookAmountMismatch(t *testing.T) {
	cases := []struct {
		name   string
		amount decimal.Decimal
	}{
		{"different amount", decimal.RequireFromString("1.00")},
		{"missing amount", decimal.Zero},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newStore(subscriber.StatusPending)
			svc, _ := newTestService(st)
			out := checkout(t, svc, st)

			_, err := svc.HandleWebhook(context.Background(), &gateway.WebhookEvent{
				Provider:  gateway.ProviderKaspi,
				InvoiceID: out.InvoiceID,
				Amount:    tc.amount,
				Status:    gateway.StatusCompleted,
			})
			if !errors.Is(err, ErrAmountMismatch) {
				t.Fatalf("expected ErrAmountMismatch, got %v", err)
			}
			if st.payments[out.PaymentID].Status != StatusPending || st.sub.Status == subscriber.StatusActive {
				t.Fatal("payment must stay pending and the subscriber inactive")
			}
		})
	}
}

func TestFailedWebhookMarksPendingOnly(t *testing.T) {
	st := newStore(subscriber.StatusPending)
	svc, _ := newTestService(st)
	out := checkout(t, svc, st)

	p, err := svc.HandleWebhook(context.Background(), &gateway.WebhookEvent{
		Provider:  gateway.ProviderKaspi,
		PaymentID: out.PaymentID.String(),
		Status:    gateway.StatusFailed,
	})
	if err != nil || p.Status != StatusFailed {
		t.Fatalf("expected failed payment, got %v %v", p, err)
	}

	_, err = svc.HandleWebhook(context.Background(), &gateway.WebhookEvent{
		Provider:  gateway.ProviderRoboKassa,
		PaymentID: out.PaymentID.String(),
		Status:    gateway.StatusFailed,
	})
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("other provider must not see the payment, got %v", err)
	}
}

func TestWebhookHandler(t *testing.T) {
	st := newStore(subscriber.StatusPending)
	svc, _ := newTestService(st)
	out := checkout(t, svc, st)
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Post("/webhooks/{provider}", h.Webhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/kaspi?payment="+out.PaymentID.String()+"&amount=49.90", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unsigned webhook: expected 400, got %d", rec.Code)
	}

	req.Header.Set("X-Signature", "ok")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("expected gateway acknowledgement, got %d %q", rec.Code, rec.Body.String())
	}
	svc.Wait()

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/paypal", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown provider: expected 400, got %d", rec.Code)
	}
}

func TestCheckoutHandlerValidates(t *testing.T) {
	st := newStore(subscriber.StatusPending)
	svc, _ := newTestService(st)
	h := NewHandler(svc)

	body := `{"plan_id":"` + st.plan.ID.String() + `","provider":"bitcoin"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	req = req.WithContext(middleware.WithIdentity(req.Context(), st.sub.UserID, "subscriber"))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected validation failure, got %d", rec.Code)
	}
	if len(st.payments) != 0 {
		t.Fatal("no payment may be created")
	}
}
