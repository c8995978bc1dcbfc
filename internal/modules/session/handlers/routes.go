package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all session routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.HandleCreateSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetSession(w, r, chi.URLParam(r, "id"))
			})
			r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				h.HandleDeleteSession(w, r, chi.URLParam(r, "id"))
			})

			r.Post("/assets", func(w http.ResponseWriter, r *http.Request) {
				h.HandleAddAsset(w, r, chi.URLParam(r, "id"))
			})
			r.Delete("/assets/{symbol}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleRemoveAsset(w, r, chi.URLParam(r, "id"), chi.URLParam(r, "symbol"))
			})

			r.Put("/plans/{symbol}", func(w http.ResponseWriter, r *http.Request) {
				h.HandlePutPlan(w, r, chi.URLParam(r, "id"), chi.URLParam(r, "symbol"))
			})
			r.Delete("/plans/{symbol}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleRemovePlan(w, r, chi.URLParam(r, "id"), chi.URLParam(r, "symbol"))
			})

			r.Post("/backtest", func(w http.ResponseWriter, r *http.Request) {
				h.HandleBacktest(w, r, chi.URLParam(r, "id"))
			})
			r.Post("/montecarlo", func(w http.ResponseWriter, r *http.Request) {
				h.HandleMonteCarlo(w, r, chi.URLParam(r, "id"))
			})
		})
	})
}
