package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all asset history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assets", func(r chi.Router) {
		r.Get("/", h.HandleListAssets)
		r.Get("/periods", h.HandleGetPeriods)
		r.Get("/correlation", h.HandleGetCorrelationMatrix)

		r.Route("/{symbol}", func(r chi.Router) {
			r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetHistory(w, r, chi.URLParam(r, "symbol"))
			})
			r.Get("/returns", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetReturns(w, r, chi.URLParam(r, "symbol"))
			})
			r.Post("/refresh", func(w http.ResponseWriter, r *http.Request) {
				h.HandleRefresh(w, r, chi.URLParam(r, "symbol"))
			})
		})
	})
}
