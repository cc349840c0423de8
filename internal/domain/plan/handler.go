package plan

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"
	"github.com/clubebeneficios/clube-api/internal/pkg/response"
)

// Handler handles plan HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates plan handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /plans
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListActive(r.Context())
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	if plans == nil {
		plans = []Plan{}
	}
	response.OK(w, plans)
}

// Get handles GET /plans/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid plan id")
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	benefits, err := h.service.ListBenefits(r.Context(), id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	if benefits == nil {
		benefits = []Benefit{}
	}
	response.OK(w, PlanDetail{Plan: *p, Benefits: benefits})
}

// PartnerBenefits handles GET /partners/{id}/benefits
func (h *Handler) PartnerBenefits(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid partner id")
		return
	}
	benefits, err := h.service.ListPartnerBenefits(r.Context(), id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	if benefits == nil {
		benefits = []Benefit{}
	}
	response.OK(w, benefits)
}

// Routes returns plan routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	return r
}
