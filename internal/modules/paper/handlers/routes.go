package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all paper trading routes
func (h *PaperHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/paper", func(r chi.Router) {
		r.Post("/trades", h.HandleSubmitTrade)               // Execute paper trade
		r.Get("/trades", h.HandleGetTrades)                  // Trade history
		r.Get("/trades/{symbol}", h.HandleGetTradesBySymbol) // Per-symbol history
		r.Post("/account", h.HandleGetAccount)               // Account summary
	})
}
