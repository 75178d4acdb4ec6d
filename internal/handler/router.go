package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/delivery-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса доставки.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.CreateOrder)
				r.Get("/{id}", h.GetOrder)
				r.Post("/{id}/status", h.TransitionOrder)
				r.Post("/{id}/cash", h.RecordCash)
			})

			r.Post("/referrals", h.ApplyReferral)
			r.Get("/customers/{id}/points", h.GetPoints)

			r.Route("/settlements", func(r chi.Router) {
				r.Post("/close", h.ClosePeriod)
				r.Get("/current", h.GetCurrentPeriod)
				r.Get("/{periodID}/report", h.GetReport)
				r.Post("/shops/{id}/status", h.ReviewShopSettlement)
				r.Post("/riders/{id}/status", h.ReviewRiderSettlement)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
