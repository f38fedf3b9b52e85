// Package handlers provides HTTP handlers for composite recommendations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/quantlab/stockpulse/internal/domain"
	"github.com/quantlab/stockpulse/internal/modules/advisor"
	"github.com/quantlab/stockpulse/internal/modules/risk"
	"github.com/quantlab/stockpulse/internal/modules/signals"
	"github.com/quantlab/stockpulse/internal/modules/technical"
)

// minTrendHistory is the price history needed before the trend analyzer
// counts as independent technical evidence
const minTrendHistory = 10

// AdvisorHandlers contains HTTP handlers for the advisor API. The recommend
// endpoint chains the signal generator, risk classifier and trend analyzer
// before handing their outputs to the engine.
type AdvisorHandlers struct {
	generator  *signals.Generator
	classifier *risk.Classifier
	analyzer   *technical.Analyzer
	engine     *advisor.Engine
	log        zerolog.Logger
}

// NewAdvisorHandlers creates a new advisor handlers instance
func NewAdvisorHandlers(
	generator *signals.Generator,
	classifier *risk.Classifier,
	analyzer *technical.Analyzer,
	engine *advisor.Engine,
	log zerolog.Logger,
) *AdvisorHandlers {
	return &AdvisorHandlers{
		generator:  generator,
		classifier: classifier,
		analyzer:   analyzer,
		engine:     engine,
		log:        log.With().Str("handler", "advisor").Logger(),
	}
}

// HandleRecommend produces a composite recommendation for one instrument
// POST /api/advisor/recommend
func (h *AdvisorHandlers) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Forecast     domain.ForecastPoint `json:"forecast"`
		CurrentPrice float64              `json:"current_price"`
		Prices       []domain.PricePoint  `json:"prices"`
		Sentiment    []float64            `json:"sentiment,omitempty"`
		Confidence   *float64             `json:"confidence,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var avgSentiment *float64
	if len(req.Sentiment) > 0 {
		avg := stat.Mean(req.Sentiment, nil)
		avgSentiment = &avg
	}

	signal, err := h.generator.Generate(signals.Input{
		Forecast:     req.Forecast,
		CurrentPrice: req.CurrentPrice,
		Sentiment:    avgSentiment,
		Confidence:   req.Confidence,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	report := h.classifier.Classify(risk.History{
		Prices:    req.Prices,
		Sentiment: req.Sentiment,
	})

	// The trend only counts as independent evidence with enough history;
	// otherwise the engine reuses the forecast signal for the technical slot
	var trend *technical.Trend
	if len(req.Prices) >= minTrendHistory {
		prices := make([]float64, len(req.Prices))
		for i, p := range req.Prices {
			prices[i] = p.Price
		}
		t := h.analyzer.TrendDirection(prices)
		trend = &t
	}

	recommendation := h.engine.Recommend(advisor.Input{
		Signal:    signal,
		Risk:      report,
		Sentiment: avgSentiment,
		Trend:     trend,
	})

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendation": recommendation,
		"signal":         signal,
		"risk":           report,
	})
}

// respondError maps domain errors to client errors, everything else to 500
func (h *AdvisorHandlers) respondError(w http.ResponseWriter, err error) {
	var priceErr domain.InvalidPriceError
	var valErr domain.ValidationError
	switch {
	case errors.As(err, &priceErr), errors.As(err, &valErr):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("Recommendation failed")
		h.writeError(w, http.StatusInternalServerError, "Recommendation failed")
	}
}

// writeJSON writes a JSON response
func (h *AdvisorHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *AdvisorHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
