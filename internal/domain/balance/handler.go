package balance

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clubebeneficios/clube-api/internal/domain/subscriber"
	"github.com/clubebeneficios/clube-api/internal/middleware"
	"github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"
	"github.com/clubebeneficios/clube-api/internal/pkg/response"
)

// SubscriberLookup resolves the signed-in user's subscriber profile.
type SubscriberLookup interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*subscriber.Subscriber, error)
}

// Handler serves the subscriber wallet endpoints
type Handler struct {
	service     *Service
	subscribers SubscriberLookup
}

// NewHandler creates balance handler
func NewHandler(service *Service, subscribers SubscriberLookup) *Handler {
	return &Handler{service: service, subscribers: subscribers}
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sub, err := h.subscribers.GetByUserID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return uuid.Nil, false
	}
	return sub.ID, true
}

// Balance handles GET /subscribers/me/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.me(w, r)
	if !ok {
		return
	}
	b, err := h.service.GetBalance(r.Context(), id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.OK(w, b)
}

// Cashback handles GET /subscribers/me/cashback
func (h *Handler) Cashback(w http.ResponseWriter, r *http.Request) {
	id, ok := h.me(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListPartnerCashback(r.Context(), id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	if list == nil {
		list = []PartnerCashback{}
	}
	response.OK(w, list)
}

// PartnerCashback handles GET /subscribers/me/cashback/{partnerId}
func (h *Handler) PartnerCashback(w http.ResponseWriter, r *http.Request) {
	partnerID, err := uuid.Parse(chi.URLParam(r, "partnerId"))
	if err != nil {
		response.BadRequest(w, "invalid partner id")
		return
	}
	id, ok := h.me(w, r)
	if !ok {
		return
	}
	c, err := h.service.GetPartnerCashback(r.Context(), id, partnerID)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.OK(w, c)
}
