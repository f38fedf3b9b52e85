// Package handlers provides HTTP handlers for alert generation.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quantlab/stockpulse/internal/domain"
	"github.com/quantlab/stockpulse/internal/modules/alerts"
)

// AlertHandlers contains HTTP handlers for the alerts API
type AlertHandlers struct {
	generator *alerts.Generator
	log       zerolog.Logger
}

// NewAlertHandlers creates a new alert handlers instance
func NewAlertHandlers(generator *alerts.Generator, log zerolog.Logger) *AlertHandlers {
	return &AlertHandlers{
		generator: generator,
		log:       log.With().Str("handler", "alerts").Logger(),
	}
}

// HandleGenerate evaluates every alert rule for one instrument
// POST /api/alerts/generate
func (h *AlertHandlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol    string                 `json:"symbol"`
		Prices    []domain.PricePoint    `json:"prices"`
		Sentiment []float64              `json:"sentiment,omitempty"`
		Forecast  []domain.ForecastPoint `json:"forecast,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report := h.generator.Generate(alerts.Input{
		Symbol:    req.Symbol,
		Prices:    req.Prices,
		Sentiment: req.Sentiment,
		Forecast:  req.Forecast,
	})

	h.writeJSON(w, http.StatusOK, report)
}

// writeJSON writes a JSON response
func (h *AlertHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *AlertHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
