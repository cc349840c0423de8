package subscriber

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type stubRepo struct {
	mu   sync.Mutex
	subs map[uuid.UUID]*Subscriber
}

func newStubRepo(subs ...*Subscriber) *stubRepo {
	r := &stubRepo{subs: map[uuid.UUID]*Subscriber{}}
	for _, s := range subs {
		r.subs[s.ID] = s
	}
	return r
}

func (r *stubRepo) Create(ctx context.Context, s *Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.subs {
		if existing.TaxID == s.TaxID {
			return ErrTaxIDExists
		}
		if existing.UserID == s.UserID {
			return ErrAlreadyRegistered
		}
	}
	s.CreatedAt = time.Now()
	r.subs[s.ID] = s
	return nil
}

func (r *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, ErrSubscriberNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrSubscriberNotFound
}

func (r *stubRepo) UpdatePushToken(ctx context.Context, id uuid.UUID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[id].PushToken = &token
	return nil
}

func (r *stubRepo) ActivateTx(ctx context.Context, tx *sqlx.Tx, id, planID uuid.UUID, now time.Time, durationDays int) (*Subscriber, error) {
	return nil, errors.New("not used")
}

func (r *stubRepo) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.subs[id]
	if s.Status != StatusPending && s.Status != StatusActive {
		return false, nil
	}
	s.Status = StatusCanceled
	return true, nil
}

func (r *stubRepo) SetStatus(ctx context.Context, id uuid.UUID, status Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return false, nil
	}
	if status == StatusSuspended && s.Status == StatusActive {
		s.Status = status
		return true, nil
	}
	return false, nil
}

func (r *stubRepo) ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]Subscriber, error) {
	return nil, nil
}

func (r *stubRepo) ListActiveEndedBefore(ctx context.Context, before time.Time) ([]Subscriber, error) {
	return nil, nil
}

func (r *stubRepo) Expire(ctx context.Context, id uuid.UUID, before time.Time) (bool, error) {
	return false, nil
}

func TestRegisterCreatesPendingSubscriber(t *testing.T) {
	svc := NewService(newStubRepo())
	userID := uuid.New()

	sub, err := svc.Register(context.Background(), userID, &RegisterRequest{
		Name:  " Ana Souza ",
		TaxID: "529.982.247-25",
		Email: "Ana@Example.com",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sub.Status != StatusPending || sub.TaxID != "52998224725" || sub.Email != "ana@example.com" || sub.Name != "Ana Souza" {
		t.Fatalf("unexpected subscriber: %+v", sub)
	}
	if !sub.Points.IsZero() || !sub.Cashback.IsZero() {
		t.Fatalf("new subscriber must start with zero balances")
	}
}

func TestRegisterRejectsInvalidAndDuplicateTaxID(t *testing.T) {
	svc := NewService(newStubRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, uuid.New(), &RegisterRequest{Name: "Ana", TaxID: "111.111.111-11", Email: "a@b.co"}); !errors.Is(err, ErrInvalidTaxID) {
		t.Fatalf("expected ErrInvalidTaxID, got %v", err)
	}
	if _, err := svc.Register(ctx, uuid.New(), &RegisterRequest{Name: "Ana", TaxID: "11144477735", Email: "a@b.co"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, uuid.New(), &RegisterRequest{Name: "Bia", TaxID: "111.444.777-35", Email: "b@b.co"}); !errors.Is(err, ErrTaxIDExists) {
		t.Fatalf("expected ErrTaxIDExists, got %v", err)
	}
}

func TestCancelOnlyFromPendingOrActive(t *testing.T) {
	userID := uuid.New()
	sub := &Subscriber{ID: uuid.New(), UserID: userID, Status: StatusActive}
	svc := NewService(newStubRepo(sub))
	ctx := context.Background()

	got, err := svc.Cancel(ctx, userID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != StatusCanceled {
		t.Fatalf("expected CANCELED, got %s", got.Status)
	}
	if _, err := svc.Cancel(ctx, userID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition on second cancel, got %v", err)
	}
}

func TestSetStatusDistinguishesMissingFromDisallowed(t *testing.T) {
	sub := &Subscriber{ID: uuid.New(), Status: StatusExpired}
	svc := NewService(newStubRepo(sub))
	ctx := context.Background()

	if _, err := svc.SetStatus(ctx, uuid.New(), StatusSuspended); !errors.Is(err, ErrSubscriberNotFound) {
		t.Fatalf("expected ErrSubscriberNotFound, got %v", err)
	}
	if _, err := svc.SetStatus(ctx, sub.ID, StatusSuspended); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
	}
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(72 * time.Hour)
	past := now.Add(-time.Hour)

	if d := (&Subscriber{PlanEndDate: &end}).DaysRemaining(now); d != 3 {
		t.Fatalf("expected 3, got %d", d)
	}
	if d := (&Subscriber{PlanEndDate: &past}).DaysRemaining(now); d != 0 {
		t.Fatalf("expected 0, got %d", d)
	}
	if d := (&Subscriber{}).DaysRemaining(now); d != -1 {
		t.Fatalf("expected -1, got %d", d)
	}
}
