package partner

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"
	"github.com/clubebeneficios/clube-api/internal/pkg/response"
)

// Handler handles partner directory HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates partner handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /partners?category=&limit=&offset=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := response.Pagination(r)
	partners, err := h.service.List(r.Context(), ListFilter{
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	if partners == nil {
		partners = []Partner{}
	}
	response.List(w, partners, limit, offset)
}

// Get handles GET /partners/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := partnerID(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.OK(w, p)
}

// View handles POST /partners/{id}/view
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := partnerID(w, r)
	if !ok {
		return
	}
	if err := h.service.TrackView(r.Context(), id); err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.NoContent(w)
}

// Click handles POST /partners/{id}/click
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	id, ok := partnerID(w, r)
	if !ok {
		return
	}
	if err := h.service.TrackClick(r.Context(), id); err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.NoContent(w)
}

func partnerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid partner id")
		return uuid.Nil, false
	}
	return id, true
}
