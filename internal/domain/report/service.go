// Package report exports partner sales as CSV files into object storage.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clubebeneficios/clube-api/internal/domain/transaction"
	"github.com/clubebeneficios/clube-api/internal/pkg/clock"
	"github.com/clubebeneficios/clube-api/internal/pkg/storage"
)

const (
	pageSize = 500
	maxRows  = 50000
)

var header = []string{
	"id", "created_at", "type", "status", "subscriber_id", "amount", "discount",
	"points_used", "cashback_generated", "cashback_used", "final_amount", "reference_id", "description",
}

// Transactions is the ledger read model the export pages through.
type Transactions interface {
	ListByPartner(ctx context.Context, partnerID uuid.UUID, p transaction.Period, limit, offset int) ([]transaction.Transaction, error)
}

// Export describes a generated report file
type Export struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Rows      int       `json:"rows"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	CreatedAt time.Time `json:"created_at"`
}

// Service builds partner reports
type Service struct {
	txs   Transactions
	store storage.Storage
	clock clock.Clock
	loc   *time.Location
}

// NewService creates report service. loc formats timestamps in the file.
func NewService(txs Transactions, store storage.Storage, clk clock.Clock, loc *time.Location) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{txs: txs, store: store, clock: clk, loc: loc}
}

// ExportPartnerSales writes every ledger row of the partner created in
// [from, to) to a CSV object and returns where it can be downloaded.
func (s *Service) ExportPartnerSales(ctx context.Context, partnerID uuid.UUID, from, to time.Time) (*Export, error) {
	period := transaction.Period{From: from, To: to}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("%w: write header: %v", ErrInternal, err)
	}

	rows := 0
	for offset := 0; ; offset += pageSize {
		page, err := s.txs.ListByPartner(ctx, partnerID, period, pageSize, offset)
		if err != nil {
			return nil, err
		}
		for i := range page {
			if err := w.Write(s.record(&page[i])); err != nil {
				return nil, fmt.Errorf("%w: write row: %v", ErrInternal, err)
			}
		}
		rows += len(page)
		if rows > maxRows {
			return nil, ErrTooManyRows
		}
		if len(page) < pageSize {
			break
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%w: flush csv: %v", ErrInternal, err)
	}

	now := s.clock.Now()
	key := fmt.Sprintf("reports/%s/sales_%s_%s_%s.csv",
		partnerID, from.In(s.loc).Format("20060102"), to.In(s.loc).Format("20060102"), uuid.NewString()[:8])
	if err := s.store.Put(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "text/csv"); err != nil {
		return nil, fmt.Errorf("%w: upload report: %v", ErrInternal, err)
	}

	log.Info().
		Str("partner_id", partnerID.String()).
		Str("key", key).
		Int("rows", rows).
		Msg("sales report exported")

	return &Export{
		URL:       s.store.URL(key),
		Key:       key,
		Rows:      rows,
		From:      from,
		To:        to,
		CreatedAt: now,
	}, nil
}

func (s *Service) record(t *transaction.Transaction) []string {
	ref := ""
	if t.ReferenceID.Valid {
		ref = t.ReferenceID.UUID.String()
	}
	return []string{
		t.ID.String(),
		t.CreatedAt.In(s.loc).Format(time.RFC3339),
		string(t.Type),
		string(t.Status),
		t.SubscriberID.String(),
		t.Amount.StringFixed(2),
		t.DiscountApplied.StringFixed(2),
		t.PointsUsed.StringFixed(2),
		t.CashbackGenerated.StringFixed(2),
		t.CashbackUsed.StringFixed(2),
		t.FinalAmount.StringFixed(2),
		ref,
		t.Description,
	}
}
