package report

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clubebeneficios/clube-api/internal/domain/partner"
	"github.com/clubebeneficios/clube-api/internal/domain/transaction"
	"github.com/clubebeneficios/clube-api/internal/middleware"
	"github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"
	"github.com/clubebeneficios/clube-api/internal/pkg/response"
)

type PartnerLookup interface {
	GetByOwnerUserID(ctx context.Context, userID uuid.UUID) (*partner.Partner, error)
}

// PeriodParser turns from/to query values into a local-day range.
type PeriodParser interface {
	ParsePeriod(from, to string, now time.Time) (transaction.Period, error)
}

// Handler handles report HTTP requests
type Handler struct {
	service  *Service
	partners PartnerLookup
	periods  PeriodParser
}

// NewHandler creates report handler
func NewHandler(service *Service, partners PartnerLookup, periods PeriodParser) *Handler {
	return &Handler{service: service, partners: partners, periods: periods}
}

// ExportSales handles POST /partners/me/reports/sales?from=&to=
func (h *Handler) ExportSales(w http.ResponseWriter, r *http.Request) {
	p, err := h.partners.GetByOwnerUserID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	q := r.URL.Query()
	period, err := h.periods.ParsePeriod(q.Get("from"), q.Get("to"), h.service.clock.Now())
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	export, err := h.service.ExportPartnerSales(r.Context(), p.ID, period.From, period.To)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.Created(w, export)
}
