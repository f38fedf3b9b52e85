// Package handlers provides HTTP handlers for risk classification.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quantlab/stockpulse/internal/domain"
	"github.com/quantlab/stockpulse/internal/modules/risk"
)

// RiskHandlers contains HTTP handlers for the risk API
type RiskHandlers struct {
	classifier *risk.Classifier
	log        zerolog.Logger
}

// NewRiskHandlers creates a new risk handlers instance
func NewRiskHandlers(classifier *risk.Classifier, log zerolog.Logger) *RiskHandlers {
	return &RiskHandlers{
		classifier: classifier,
		log:        log.With().Str("handler", "risk").Logger(),
	}
}

// HandleClassify scans recent history for anomalies and grades overall risk
// POST /api/risk/classify
func (h *RiskHandlers) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prices    []domain.PricePoint `json:"prices"`
		Sentiment []float64           `json:"sentiment,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report := h.classifier.Classify(risk.History{
		Prices:    req.Prices,
		Sentiment: req.Sentiment,
	})

	h.writeJSON(w, http.StatusOK, report)
}

// writeJSON writes a JSON response
func (h *RiskHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *RiskHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
