package expiration

import (
	"net/http"

	"github.com/clubebeneficios/clube-api/internal/pkg/errorhandler"
	"github.com/clubebeneficios/clube-api/internal/pkg/response"
)

// Handler exposes the sweep to an external scheduler
type Handler struct {
	sweep *Sweep
}

// NewHandler creates sweep handler
func NewHandler(sweep *Sweep) *Handler {
	return &Handler{sweep: sweep}
}

// Run handles POST /jobs/expiration-sweep
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	report, err := h.sweep.Run(r.Context())
	if err != nil {
		errorhandler.Handle(r.Context(), w, err)
		return
	}
	response.OK(w, report)
}
