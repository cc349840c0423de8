package payment

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/clubebeneficios/clube-api/internal/middleware"
	"github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"
	gateway "github.com/clubebeneficios/clube-api/internal/pkg/payment"
	"github.com/clubebeneficios/clube-api/internal/pkg/response"
	"github.com/clubebeneficios/clube-api/internal/pkg/validator"
)

// Handler handles payment HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates payment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Checkout handles POST /payments/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	out, err := h.service.Checkout(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.Created(w, out)
}

// ListMine handles GET /payments
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	limit, offset := response.Pagination(r)
	payments, err := h.service.ListMine(r.Context(), middleware.GetUserID(r.Context()), limit, offset)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.List(w, payments, limit, offset)
}

// Webhook handles POST /webhooks/{provider}. The body format and the
// success acknowledgement are gateway specific.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	provider, err := h.service.Provider(chi.URLParam(r, "provider"))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}

	event, err := provider.ParseWebhook(r)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) {
			log.Warn().Str("provider", provider.Name()).Str("remote", r.RemoteAddr).Msg("webhook signature rejected")
			errorhandler.Handle(r.Context(), w, ErrInvalidSignature)
			return
		}
		response.BadRequest(w, "Invalid webhook payload")
		return
	}

	if _, err := h.service.HandleWebhook(r.Context(), event); err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	provider.Acknowledge(w, event)
}

// Routes returns the authenticated payment routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/checkout", h.Checkout)
	r.Get("/", h.ListMine)
	return r
}
