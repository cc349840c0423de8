package notification

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubebeneficios/clube-api/internal/middleware"
	"github.com/clubebeneficios/clube-api/internal/pkg/clock"
	"github.com/clubebeneficios/clube-api/internal/pkg/push"
)

type memRepo struct {
	mu   sync.Mutex
	rows []*Notification
}

func (m *memRepo) Create(ctx context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, n)
	return nil
}

func (m *memRepo) CreateOnce(ctx context.Context, n *Notification) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.SubscriberID == n.SubscriberID && r.Type == n.Type && r.DateBucket.Equal(n.DateBucket) {
			return false, nil
		}
	}
	m.rows = append(m.rows, n)
	return true, nil
}

func (m *memRepo) ExistsSince(ctx context.Context, subscriberID uuid.UUID, t Type, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.SubscriberID.UUID == subscriberID && r.Type == t && r.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Notification
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) CountUnreadByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.rows {
		if r.UserID == userID && !r.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memRepo) MarkAsRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id && r.UserID == userID {
			r.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rows {
		if r.UserID == userID && !r.IsRead {
			r.IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	var deleted int64
	for _, r := range m.rows {
		if r.IsRead && r.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return deleted, nil
}

type recorder struct {
	realtime []uuid.UUID
	emails   []string
	pushes   []*push.Message
	pushErr  error
}

func (r *recorder) SendToUserJSON(userID uuid.UUID, payload any) error {
	r.realtime = append(r.realtime, userID)
	return nil
}

func (r *recorder) Queue(to, toName, templateName, subject string, data interface{}) {
	r.emails = append(r.emails, templateName)
}

func (r *recorder) Send(ctx context.Context, msg *push.Message) error {
	r.pushes = append(r.pushes, msg)
	return r.pushErr
}

func newTestService(now time.Time) (*Service, *memRepo, *recorder, *clock.Manual) {
	repo := &memRepo{}
	rec := &recorder{}
	clk := clock.NewManual(now)
	svc := NewService(repo, Channels{
		Realtime:    rec,
		Mailer:      rec,
		Pusher:      rec,
		Clock:       clk,
		Location:    time.UTC,
		FrontendURL: "https://clube.test",
	})
	return svc, repo, rec, clk
}

func testRecipient() Recipient {
	end := time.Date(2026, 5, 8, 12, 0, 0, 0, time.UTC)
	return Recipient{
		UserID:       uuid.New(),
		SubscriberID: uuid.New(),
		Name:         "Ana",
		Email:        "ana@example.com",
		PushToken:    "device-token",
		PlanName:     "Ouro",
		PlanEndDate:  &end,
	}
}

func TestNotifyExpiringSoonDeliversOnAllChannels(t *testing.T) {
	svc, repo, rec, _ := newTestService(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	rcpt := testRecipient()

	emitted, err := svc.NotifyExpiringSoon(context.Background(), rcpt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !emitted {
		t.Fatal("expected reminder to be emitted")
	}
	if len(repo.rows) != 1 || repo.rows[0].Type != TypeExpiringSoon {
		t.Fatalf("expected one expiring_soon row, got %+v", repo.rows)
	}
	if got := repo.rows[0].GetData().PlanEndDate; got != "08/05/2026" {
		t.Errorf("expected end date in data, got %q", got)
	}
	if len(rec.realtime) != 1 || len(rec.emails) != 1 || len(rec.pushes) != 1 {
		t.Fatalf("expected one delivery per channel, got %d/%d/%d", len(rec.realtime), len(rec.emails), len(rec.pushes))
	}
}

func TestNotifyLifecycleIsOncePerDay(t *testing.T) {
	svc, repo, rec, clk := newTestService(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	rcpt := testRecipient()
	ctx := context.Background()

	if _, err := svc.NotifyExpiringToday(ctx, rcpt); err != nil {
		t.Fatalf("first: %v", err)
	}
	clk.Advance(2 * time.Hour)
	emitted, err := svc.NotifyExpiringToday(ctx, rcpt)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if emitted {
		t.Fatal("second reminder within 24h must be skipped")
	}
	if len(repo.rows) != 1 || len(rec.emails) != 1 {
		t.Fatalf("expected a single row and email, got %d rows %d emails", len(repo.rows), len(rec.emails))
	}

	// A different type on the same day is still emitted.
	if emitted, _ := svc.NotifyExpired(ctx, rcpt); !emitted {
		t.Fatal("expected expired notification to be emitted")
	}
}

func TestPushFailureDoesNotFailEmission(t *testing.T) {
	svc, repo, rec, _ := newTestService(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	rec.pushErr = errors.New("fcm down")

	emitted, err := svc.NotifyExpired(context.Background(), testRecipient())
	if err != nil || !emitted {
		t.Fatalf("expected emission despite push failure, got %v %v", emitted, err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected in-app row, got %d", len(repo.rows))
	}
}

func TestNotifySaleConfirmedIsNotDeduplicated(t *testing.T) {
	svc, repo, rec, _ := newTestService(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	rcpt := testRecipient()
	sale := SaleSummary{
		TransactionID: uuid.New(),
		PartnerID:     uuid.New(),
		PartnerName:   "Padaria Central",
		Amount:        decimal.NewFromInt(100),
		Discount:      decimal.NewFromInt(10),
		PointsUsed:    decimal.NewFromInt(20),
		FinalAmount:   decimal.NewFromInt(70),
	}

	for i := 0; i < 2; i++ {
		if err := svc.NotifySaleConfirmed(context.Background(), rcpt, sale); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	if len(repo.rows) != 2 {
		t.Fatalf("expected two receipts, got %d", len(repo.rows))
	}
	if repo.rows[0].Body != "Total pago: R$ 70.00" {
		t.Errorf("unexpected body %q", repo.rows[0].Body)
	}
	if len(rec.emails) != 2 {
		t.Errorf("expected two emails, got %d", len(rec.emails))
	}
}

func TestMarkAsReadIsScopedToOwner(t *testing.T) {
	svc, _, _, _ := newTestService(time.Now())
	rcpt := testRecipient()
	if err := svc.NotifyNewSubscriber(context.Background(), rcpt); err != nil {
		t.Fatalf("notify: %v", err)
	}
	items, _ := svc.List(context.Background(), rcpt.UserID, 20, 0)
	if len(items) != 1 {
		t.Fatalf("expected one notification, got %d", len(items))
	}

	err := svc.MarkAsRead(context.Background(), items[0].ID, uuid.New())
	if !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound for another user, got %v", err)
	}
	if err := svc.MarkAsRead(context.Background(), items[0].ID, rcpt.UserID); err != nil {
		t.Fatalf("owner mark read: %v", err)
	}
	if count, _ := svc.UnreadCount(context.Background(), rcpt.UserID); count != 0 {
		t.Errorf("expected no unread, got %d", count)
	}
}

func TestCleanupJobDeletesOnlyOldReadRows(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := &memRepo{rows: []*Notification{
		{ID: uuid.New(), IsRead: true, CreatedAt: now.AddDate(0, 0, -120)},
		{ID: uuid.New(), IsRead: false, CreatedAt: now.AddDate(0, 0, -120)},
		{ID: uuid.New(), IsRead: true, CreatedAt: now.AddDate(0, 0, -10)},
	}}

	deleted, err := NewCleanupJob(repo, clock.NewManual(now), 90).RunOnce(context.Background())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 1 || len(repo.rows) != 2 {
		t.Fatalf("expected 1 deleted and 2 kept, got %d deleted %d kept", deleted, len(repo.rows))
	}
}

func TestHandlerMarkAsReadInvalidID(t *testing.T) {
	svc, _, _, _ := newTestService(time.Now())
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Post("/notifications/{id}/read", h.MarkAsRead)
	req := httptest.NewRequest(http.MethodPost, "/notifications/not-a-uuid/read", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), uuid.New(), "subscriber"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
