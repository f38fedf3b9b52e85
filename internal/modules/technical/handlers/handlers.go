// Package handlers provides HTTP handlers for technical analysis.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quantlab/stockpulse/internal/domain"
	"github.com/quantlab/stockpulse/internal/modules/technical"
)

// TechnicalHandlers contains HTTP handlers for the technical API
type TechnicalHandlers struct {
	analyzer *technical.Analyzer
	log      zerolog.Logger
}

// NewTechnicalHandlers creates a new technical handlers instance
func NewTechnicalHandlers(analyzer *technical.Analyzer, log zerolog.Logger) *TechnicalHandlers {
	return &TechnicalHandlers{
		analyzer: analyzer,
		log:      log.With().Str("handler", "technical").Logger(),
	}
}

// HandleTrend classifies the moving-average trend of a price series
// POST /api/technical/trend
func (h *TechnicalHandlers) HandleTrend(w http.ResponseWriter, r *http.Request) {
	prices, ok := h.decodePrices(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, h.analyzer.TrendDirection(prices))
}

// HandleInsights summarizes trend, volatility, momentum and key levels
// POST /api/technical/insights
func (h *TechnicalHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	prices, ok := h.decodePrices(w, r)
	if !ok {
		return
	}

	insights, err := h.analyzer.MarketInsights(prices)
	if err != nil {
		var dataErr domain.InsufficientDataError
		if errors.As(err, &dataErr) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Market insights failed")
		h.writeError(w, http.StatusInternalServerError, "Market insights failed")
		return
	}

	h.writeJSON(w, http.StatusOK, insights)
}

func (h *TechnicalHandlers) decodePrices(w http.ResponseWriter, r *http.Request) ([]float64, bool) {
	var req struct {
		Prices []domain.PricePoint `json:"prices"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}

	prices := make([]float64, len(req.Prices))
	for i, p := range req.Prices {
		prices[i] = p.Price
	}
	return prices, true
}

// writeJSON writes a JSON response
func (h *TechnicalHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *TechnicalHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
