// Package handlers provides HTTP handlers for signal generation.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quantlab/stockpulse/internal/domain"
	"github.com/quantlab/stockpulse/internal/modules/signals"
)

// SignalHandlers contains HTTP handlers for the signals API
type SignalHandlers struct {
	generator *signals.Generator
	log       zerolog.Logger
}

// NewSignalHandlers creates a new signal handlers instance
func NewSignalHandlers(generator *signals.Generator, log zerolog.Logger) *SignalHandlers {
	return &SignalHandlers{
		generator: generator,
		log:       log.With().Str("handler", "signals").Logger(),
	}
}

// HandleGenerate derives a signal from a single forecast point
// POST /api/signals/generate
func (h *SignalHandlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Forecast     domain.ForecastPoint `json:"forecast"`
		CurrentPrice float64              `json:"current_price"`
		Sentiment    *float64             `json:"sentiment,omitempty"`
		Confidence   *float64             `json:"confidence,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	signal, err := h.generator.Generate(signals.Input{
		Forecast:     req.Forecast,
		CurrentPrice: req.CurrentPrice,
		Sentiment:    req.Sentiment,
		Confidence:   req.Confidence,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, signal)
}

// HandleSeries derives signals for a whole forecast horizon with a summary
// POST /api/signals/series
func (h *SignalHandlers) HandleSeries(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Forecast     []domain.ForecastPoint `json:"forecast"`
		CurrentPrice float64                `json:"current_price"`
		Sentiment    *float64               `json:"sentiment,omitempty"`
		Confidence   *float64               `json:"confidence,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.generator.GenerateSeries(req.Forecast, req.CurrentPrice, req.Sentiment, req.Confidence)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// respondError maps domain errors to client errors, everything else to 500
func (h *SignalHandlers) respondError(w http.ResponseWriter, err error) {
	var priceErr domain.InvalidPriceError
	var valErr domain.ValidationError
	var dataErr domain.InsufficientDataError
	switch {
	case errors.As(err, &priceErr), errors.As(err, &valErr), errors.As(err, &dataErr):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Signal generation failed")
		h.writeError(w, http.StatusInternalServerError, "Signal generation failed")
	}
}

// writeJSON writes a JSON response
func (h *SignalHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *SignalHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
