// Package handlers provides HTTP handlers for paper trading.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/quantlab/stockpulse/internal/domain"
	"github.com/quantlab/stockpulse/internal/modules/paper"
)

// PaperHandlers contains HTTP handlers for the paper trading API
type PaperHandlers struct {
	service *paper.Service
	log     zerolog.Logger
}

// NewPaperHandlers creates a new paper trading handlers instance
func NewPaperHandlers(service *paper.Service, log zerolog.Logger) *PaperHandlers {
	return &PaperHandlers{
		service: service,
		log:     log.With().Str("handler", "paper").Logger(),
	}
}

// HandleSubmitTrade executes a paper trade against the virtual account
// POST /api/paper/trades
func (h *PaperHandlers) HandleSubmitTrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string  `json:"symbol"`
		Action string  `json:"action"`
		Shares int     `json:"shares"`
		Price  float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	trade, err := h.service.SubmitTrade(r.Context(), paper.TradeRequest{
		Symbol:    req.Symbol,
		Action:    domain.TradeAction(req.Action),
		Shares:    req.Shares,
		Price:     req.Price,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, trade)
}

// HandleGetAccount returns the account summary. The client may POST current
// prices to value open positions; without them positions are valued at
// average cost.
// POST /api/paper/account
func (h *PaperHandlers) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPrices map[string]float64 `json:"current_prices,omitempty"`
	}
	if r.Body != nil {
		// An empty or absent body is fine
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	h.writeJSON(w, http.StatusOK, h.service.GetSummary(req.CurrentPrices))
}

// HandleGetTrades returns recent paper trades, newest first
// GET /api/paper/trades
func (h *PaperHandlers) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil {
			limit = parsed
		}
	}

	trades, err := h.service.GetHistory(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get trade history")
		h.writeError(w, http.StatusInternalServerError, "Failed to get trade history")
		return
	}

	h.writeJSON(w, http.StatusOK, trades)
}

// HandleGetTradesBySymbol returns recent paper trades for one symbol
// GET /api/paper/trades/{symbol}
func (h *PaperHandlers) HandleGetTradesBySymbol(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	limit := 50
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil {
			limit = parsed
		}
	}

	trades, err := h.service.GetHistoryBySymbol(r.Context(), symbol, limit)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to get trade history")
		h.writeError(w, http.StatusInternalServerError, "Failed to get trade history")
		return
	}

	h.writeJSON(w, http.StatusOK, trades)
}

// respondError maps domain errors to client errors, everything else to 500
func (h *PaperHandlers) respondError(w http.ResponseWriter, err error) {
	var fundsErr domain.InsufficientFundsError
	var sharesErr domain.InsufficientSharesError
	var valErr domain.ValidationError
	var priceErr domain.InvalidPriceError
	switch {
	case errors.As(err, &fundsErr), errors.As(err, &sharesErr):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &valErr), errors.As(err, &priceErr):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Paper trade failed")
		h.writeError(w, http.StatusInternalServerError, "Paper trade failed")
	}
}

// writeJSON writes a JSON response
func (h *PaperHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *PaperHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
