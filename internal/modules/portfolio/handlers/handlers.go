// Package handlers provides HTTP handlers for portfolio analysis.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quantlab/stockpulse/internal/domain"
	"github.com/quantlab/stockpulse/internal/modules/portfolio"
)

// PortfolioHandlers contains HTTP handlers for the portfolio API
type PortfolioHandlers struct {
	analyzer *portfolio.Analyzer
	log      zerolog.Logger
}

// NewPortfolioHandlers creates a new portfolio handlers instance
func NewPortfolioHandlers(analyzer *portfolio.Analyzer, log zerolog.Logger) *PortfolioHandlers {
	return &PortfolioHandlers{
		analyzer: analyzer,
		log:      log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleAnalyze computes weighted portfolio metrics from per-instrument
// return series
// POST /api/portfolio/analyze
func (h *PortfolioHandlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instruments []string             `json:"instruments"`
		Weights     []float64            `json:"weights"`
		Returns     map[string][]float64 `json:"returns"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.analyzer.Analyze(portfolio.Spec{
		Instruments: req.Instruments,
		Weights:     req.Weights,
	}, req.Returns)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleCompare ranks instruments by their individual return series
// POST /api/portfolio/compare
func (h *PortfolioHandlers) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Returns map[string][]float64 `json:"returns"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comparison, err := h.analyzer.Compare(req.Returns)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, comparison)
}

// respondError maps domain errors to client errors, everything else to 500
func (h *PortfolioHandlers) respondError(w http.ResponseWriter, err error) {
	var valErr domain.ValidationError
	var dataErr domain.InsufficientDataError
	var alignErr domain.DataAlignmentError
	switch {
	case errors.As(err, &valErr), errors.As(err, &dataErr), errors.As(err, &alignErr):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Portfolio analysis failed")
		h.writeError(w, http.StatusInternalServerError, "Portfolio analysis failed")
	}
}

// writeJSON writes a JSON response
func (h *PortfolioHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *PortfolioHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
