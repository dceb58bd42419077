package api

import (
	"net/http"

	"talent-crm/internal/common/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the service routes. Health and readiness live on the
// metrics listener, not here.
func NewRouter(h *Handler, log logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(LimitBody)

	r.Route("/jobs/{jobID}", func(r chi.Router) {
		r.Post("/assign", h.PostAssign)
		r.Post("/claim", h.PostClaim)
		r.Get("/permission", h.GetPermission)
	})

	r.Route("/candidates/{candidateID}", func(r chi.Router) {
		r.Get("/feedback", h.GetFeedback)
		r.Post("/jobs/{jobID}/feedback", h.PostFeedback)
	})

	r.Post("/admin/sweep", h.PostSweep)

	return r
}
