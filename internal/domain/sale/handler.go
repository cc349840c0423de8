package sale

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clubebeneficios/clube-api/internal/domain/partner"
	"github.com/clubebeneficios/clube-api/internal/middleware"
	"github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"
	"github.com/clubebeneficios/clube-api/internal/pkg/response"
	"github.com/clubebeneficios/clube-api/internal/pkg/validator"
)

// PartnerLookup resolves the partner operated by the signed-in user.
type PartnerLookup interface {
	GetByOwnerUserID(ctx context.Context, userID uuid.UUID) (*partner.Partner, error)
}

// Handler handles sale HTTP requests
type Handler struct {
	service  *Service
	partners PartnerLookup
}

// NewHandler creates sale handler
func NewHandler(service *Service, partners PartnerLookup) *Handler {
	return &Handler{service: service, partners: partners}
}

// Confirm handles POST /sales/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	p, err := h.partners.GetByOwnerUserID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	var req ConfirmSaleRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	result, err := h.service.ConfirmSale(r.Context(), p.ID, &req)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.Created(w, result)
}

// Refund handles POST /sales/{id}/refund
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid transaction ID")
		return
	}

	p, err := h.partners.GetByOwnerUserID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	var req RefundRequest
	if r.ContentLength != 0 {
		if err := response.DecodeJSON(r.Body, &req); err != nil {
			response.BadRequest(w, "Invalid JSON body")
			return
		}
	}
	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	result, err := h.service.Refund(r.Context(), p.ID, id, req.Reason)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.Created(w, result)
}

// Routes returns sale router. Callers mount it behind auth and the
// partner role.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/confirm", h.Confirm)
	r.Post("/{id}/refund", h.Refund)
	return r
}
