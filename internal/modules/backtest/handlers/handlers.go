// Package handlers provides HTTP handlers for backtest runs.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quantlab/stockpulse/internal/config"
	"github.com/quantlab/stockpulse/internal/domain"
	"github.com/quantlab/stockpulse/internal/modules/backtest"
)

// BacktestHandlers contains HTTP handlers for the backtest API
type BacktestHandlers struct {
	simulator *backtest.Simulator
	cfg       config.DecisionConfig
	log       zerolog.Logger
}

// NewBacktestHandlers creates a new backtest handlers instance
func NewBacktestHandlers(simulator *backtest.Simulator, cfg config.DecisionConfig, log zerolog.Logger) *BacktestHandlers {
	return &BacktestHandlers{
		simulator: simulator,
		cfg:       cfg,
		log:       log.With().Str("handler", "backtest").Logger(),
	}
}

// HandleRun replays a price series against a signal series
// POST /api/backtest/run
func (h *BacktestHandlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol         string              `json:"symbol"`
		Prices         []domain.PricePoint `json:"prices"`
		Signals        []domain.Signal     `json:"signals"`
		InitialCapital float64             `json:"initial_capital,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	capital := req.InitialCapital
	if capital == 0 {
		capital = h.cfg.DefaultInitialCapital
	}

	result, err := h.simulator.Run(req.Symbol, req.Prices, req.Signals, capital)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// respondError maps domain errors to client errors, everything else to 500
func (h *BacktestHandlers) respondError(w http.ResponseWriter, err error) {
	var valErr domain.ValidationError
	var dataErr domain.InsufficientDataError
	var alignErr domain.DataAlignmentError
	var priceErr domain.InvalidPriceError
	switch {
	case errors.As(err, &valErr), errors.As(err, &dataErr),
		errors.As(err, &alignErr), errors.As(err, &priceErr):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Backtest failed")
		h.writeError(w, http.StatusInternalServerError, "Backtest failed")
	}
}

// writeJSON writes a JSON response
func (h *BacktestHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *BacktestHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
