package transaction

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clubebeneficios/clube-api/internal/domain/partner"
	"github.com/clubebeneficios/clube-api/internal/domain/subscriber"
	"github.com/clubebeneficios/clube-api/internal/middleware"
	"github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"
	"github.com/clubebeneficios/clube-api/internal/pkg/response"
)

type SubscriberLookup interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*subscriber.Subscriber, error)
}

type PartnerLookup interface {
	GetByOwnerUserID(ctx context.Context, userID uuid.UUID) (*partner.Partner, error)
}

// Handler serves transaction history and the partner dashboard
type Handler struct {
	service     *Service
	subscribers SubscriberLookup
	partners    PartnerLookup
}

// NewHandler creates transaction handler
func NewHandler(service *Service, subscribers SubscriberLookup, partners PartnerLookup) *Handler {
	return &Handler{service: service, subscribers: subscribers, partners: partners}
}

// ListMine handles GET /subscribers/me/transactions
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subscribers.GetByUserID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	limit, offset := response.Pagination(r)
	list, err := h.service.ListBySubscriber(r.Context(), sub.ID, limit, offset)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	if list == nil {
		list = []Transaction{}
	}
	response.List(w, list, limit, offset)
}

// ListPartner handles GET /partners/me/transactions?from=&to=
func (h *Handler) ListPartner(w http.ResponseWriter, r *http.Request) {
	p, period, ok := h.partnerPeriod(w, r)
	if !ok {
		return
	}

	limit, offset := response.Pagination(r)
	list, err := h.service.ListByPartner(r.Context(), p.ID, period, limit, offset)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	if list == nil {
		list = []Transaction{}
	}
	response.List(w, list, limit, offset)
}

// Dashboard handles GET /partners/me/dashboard?from=&to=
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, period, ok := h.partnerPeriod(w, r)
	if !ok {
		return
	}

	d, err := h.service.Dashboard(r.Context(), p, period)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.OK(w, d)
}

func (h *Handler) partnerPeriod(w http.ResponseWriter, r *http.Request) (*partner.Partner, Period, bool) {
	p, err := h.partners.GetByOwnerUserID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return nil, Period{}, false
	}
	q := r.URL.Query()
	period, err := h.service.ParsePeriod(q.Get("from"), q.Get("to"), time.Now())
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return nil, Period{}, false
	}
	return p, period, true
}
