package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all signal routes
func (h *SignalHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/signals", func(r chi.Router) {
		r.Post("/generate", h.HandleGenerate) // Single forecast point
		r.Post("/series", h.HandleSeries)     // Full horizon with summary
	})
}
