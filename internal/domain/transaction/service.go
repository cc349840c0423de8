package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/clubebeneficios/clube-api/internal/domain/partner"
)

// Service is the transaction recorder and its read models.
type Service struct {
	repo Repository
	loc  *time.Location
}

// NewService creates transaction service. loc is the business timezone
// used to bucket dashboard days.
func NewService(repo Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc}
}

// RecordTx inserts t inside the caller's transaction and returns its id.
func (s *Service) RecordTx(ctx context.Context, tx *sqlx.Tx, t *Transaction) (uuid.UUID, error) {
	if err := validate(t); err != nil {
		return uuid.Nil, err
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if err := s.repo.RecordTx(ctx, tx, t); err != nil {
		return uuid.Nil, err
	}
	return t.ID, nil
}

func validate(t *Transaction) error {
	if t.SubscriberID == uuid.Nil {
		return fmt.Errorf("%w: subscriber is required", ErrInvalidTransaction)
	}
	for name, v := range map[string]interface{ IsNegative() bool }{
		"amount":             t.Amount,
		"points_used":        t.PointsUsed,
		"discount_applied":   t.DiscountApplied,
		"cashback_generated": t.CashbackGenerated,
		"cashback_used":      t.CashbackUsed,
		"final_amount":       t.FinalAmount,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s is negative", ErrInvalidTransaction, name)
		}
	}
	switch t.Type {
	case TypePurchase, TypeCashback:
		if !t.PartnerID.Valid {
			return fmt.Errorf("%w: %s needs a partner", ErrInvalidTransaction, t.Type)
		}
	case TypeRefund:
		if !t.ReferenceID.Valid {
			return fmt.Errorf("%w: refund needs a reference", ErrInvalidTransaction)
		}
	case TypeBonus, TypeMonthlyPoints:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, t.Type)
	}
	switch t.Status {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransaction, t.Status)
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) LockByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Transaction, error) {
	return s.repo.LockByIDTx(ctx, tx, id)
}

func (s *Service) ListBySubscriber(ctx context.Context, subscriberID uuid.UUID, limit, offset int) ([]Transaction, error) {
	return s.repo.ListBySubscriber(ctx, subscriberID, limit, offset)
}

func (s *Service) ListByPartner(ctx context.Context, partnerID uuid.UUID, p Period, limit, offset int) ([]Transaction, error) {
	return s.repo.ListByPartner(ctx, partnerID, p.From, p.To, limit, offset)
}

// SummarizeByPartner aggregates completed purchases net of refunds. It is a
// read-only view outside any redemption transaction.
func (s *Service) SummarizeByPartner(ctx context.Context, partnerID uuid.UUID, p Period) (*Summary, error) {
	return s.repo.SummarizeByPartner(ctx, partnerID, p.From, p.To)
}

func (s *Service) DailyByPartner(ctx context.Context, partnerID uuid.UUID, p Period) ([]DailyPoint, error) {
	return s.repo.DailyByPartner(ctx, partnerID, p.From, p.To, s.loc)
}

// Dashboard loads the partner summary, daily chart and counters concurrently.
func (s *Service) Dashboard(ctx context.Context, p *partner.Partner, period Period) (*Dashboard, error) {
	d := &Dashboard{
		PartnerID: p.ID,
		From:      period.From,
		To:        period.To,
		PageViews: p.PageViews,
		Clicks:    p.Clicks,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.repo.SummarizeByPartner(gctx, p.ID, period.From, period.To)
		if err != nil {
			return err
		}
		d.Summary = *summary
		return nil
	})
	g.Go(func() error {
		daily, err := s.repo.DailyByPartner(gctx, p.ID, period.From, period.To, s.loc)
		if err != nil {
			return err
		}
		if daily == nil {
			daily = []DailyPoint{}
		}
		d.Daily = daily
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// ParsePeriod reads from/to as local dates (YYYY-MM-DD, both inclusive).
// Missing values default to the last 30 days ending today.
func (s *Service) ParsePeriod(from, to string, now time.Time) (Period, error) {
	today := time.Date(now.In(s.loc).Year(), now.In(s.loc).Month(), now.In(s.loc).Day(), 0, 0, 0, 0, s.loc)

	end := today
	if to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, s.loc)
		if err != nil {
			return Period{}, ErrInvalidPeriod
		}
		end = t
	}
	start := end.AddDate(0, 0, -29)
	if from != "" {
		f, err := time.ParseInLocation("2006-01-02", from, s.loc)
		if err != nil {
			return Period{}, ErrInvalidPeriod
		}
		start = f
	}
	if start.After(end) || end.Sub(start) > 366*24*time.Hour {
		return Period{}, ErrInvalidPeriod
	}
	return Period{From: start, To: end.AddDate(0, 0, 1)}, nil
}
