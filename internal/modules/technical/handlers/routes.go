package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all technical analysis routes
func (h *TechnicalHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/technical", func(r chi.Router) {
		r.Post("/trend", h.HandleTrend)       // Moving-average trend
		r.Post("/insights", h.HandleInsights) // Full market insights
	})
}
