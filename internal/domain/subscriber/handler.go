package subscriber

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clubebeneficios/clube-api/internal/middleware"
	"github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"
	"github.com/clubebeneficios/clube-api/internal/pkg/response"
	"github.com/clubebeneficios/clube-api/internal/pkg/validator"
)

// Handler handles subscriber HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates subscriber handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register handles POST /subscribers
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	sub, err := h.service.Register(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.Created(w, sub)
}

// Me handles GET /subscribers/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.GetByUserID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.OK(w, MeResponse{Subscriber: sub, DaysRemaining: sub.DaysRemaining(time.Now())})
}

// Cancel handles POST /subscribers/me/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Cancel(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.OK(w, sub)
}

// PushToken handles PUT /subscribers/me/push-token
func (h *Handler) PushToken(w http.ResponseWriter, r *http.Request) {
	var req PushTokenRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}
	if err := h.service.UpdatePushToken(r.Context(), middleware.GetUserID(r.Context()), req.Token); err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.NoContent(w)
}

// SetStatus handles PATCH /admin/subscribers/{id}/status
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid subscriber id")
		return
	}

	var req SetStatusRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errors := validator.Validate(&req); errors != nil {
		response.ValidationError(w, errors)
		return
	}

	sub, err := h.service.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.OK(w, sub)
}
