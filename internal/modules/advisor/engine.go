// Package advisor combines forecast, sentiment, technical and risk evidence
// into a single weighted recommendation.
package advisor

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/quantlab/stockpulse/internal/config"
	"github.com/quantlab/stockpulse/internal/domain"
	"github.com/quantlab/stockpulse/internal/modules/technical"
)

// Component names in the recommendation breakdown
const (
	ComponentForecast  = "forecast"
	ComponentSentiment = "sentiment"
	ComponentTechnical = "technical"
	ComponentRisk      = "risk"
)

// Technical component provenance. When no independent technical trend is
// supplied the engine falls back to reusing the signal's label as the
// technical component; the breakdown records which one happened so the two
// are never presented as independent evidence when they are the same number.
const (
	TechnicalFromTrend       = "trend"
	TechnicalFromSignalReuse = "signal_reuse"
)

// componentOrder fixes the evaluation order for the composite sum and the
// reasoning lines. Float addition is not associative, so summing in map
// iteration order would make the score nondeterministic across calls.
var componentOrder = []string{ComponentForecast, ComponentSentiment, ComponentTechnical, ComponentRisk}

// forecastChangeScale is the predicted change (in percent) that maps to a
// full-strength forecast component
const forecastChangeScale = 3.0

// Input holds the four evidence sources for one recommendation
type Input struct {
	Signal    domain.Signal
	Risk      domain.AnomalyReport
	Sentiment *float64         // averaged sentiment in [-1, 1]; nil means neutral
	Trend     *technical.Trend // nil when no independent technical signal exists
}

// Component is one weighted contributor to the composite score
type Component struct {
	Score    float64 `json:"score"`  // normalized to [-1, 1], positive favours BUY
	Weight   float64 `json:"weight"` // fixed share of the composite
	Weighted float64 `json:"weighted"`
}

// Recommendation is the final weighted call for one instrument.
// Derived, recomputed on each request, never persisted.
type Recommendation struct {
	FinalLabel      domain.SignalLabel     `json:"final_label"`
	CompositeScore  float64                `json:"composite_score"` // [-1, 1]
	Confidence      domain.ConfidenceLabel `json:"confidence"`
	Components      map[string]Component   `json:"component_breakdown"`
	TechnicalSource string                 `json:"technical_source"` // "trend" or "signal_reuse"
	Reasoning       []string               `json:"reasoning"`
}

// Engine produces composite recommendations. It is a pure function of its
// inputs: no clock, no randomness, no retained state.
type Engine struct {
	cfg config.DecisionConfig
	log zerolog.Logger
}

// NewEngine creates a new recommendation engine
func NewEngine(cfg config.DecisionConfig, log zerolog.Logger) *Engine {
	return &Engine{
		cfg: cfg,
		log: log.With().Str("component", "advisor").Logger(),
	}
}

// Recommend combines the four evidence sources under the configured weights
func (e *Engine) Recommend(in Input) Recommendation {
	sentiment := 0.0
	if in.Sentiment != nil {
		sentiment = clamp(*in.Sentiment, -1, 1)
	}

	technicalScore, technicalSource := e.technicalComponent(in)

	components := map[string]Component{
		ComponentForecast:  newComponent(forecastScore(in.Signal.PredictedChangePct), e.cfg.WeightForecast),
		ComponentSentiment: newComponent(sentiment, e.cfg.WeightSentiment),
		ComponentTechnical: newComponent(technicalScore, e.cfg.WeightTechnical),
		ComponentRisk:      newComponent(riskScore(in.Risk.RiskLevel), e.cfg.WeightRisk),
	}

	var composite float64
	for _, name := range componentOrder {
		composite += components[name].Weighted
	}

	rec := Recommendation{
		FinalLabel:      e.finalLabel(composite),
		CompositeScore:  composite,
		Confidence:      e.confidence(composite, in.Risk.RiskLevel),
		Components:      components,
		TechnicalSource: technicalSource,
		Reasoning:       reasoning(components, technicalSource),
	}

	e.log.Debug().
		Str("label", string(rec.FinalLabel)).
		Float64("score", rec.CompositeScore).
		Str("confidence", string(rec.Confidence)).
		Msg("Recommendation computed")

	return rec
}

// technicalComponent prefers an independent trend; without one it reuses the
// signal label and says so
func (e *Engine) technicalComponent(in Input) (float64, string) {
	if in.Trend != nil {
		return clamp(in.Trend.Score, -1, 1), TechnicalFromTrend
	}
	return labelScore(in.Signal.Label), TechnicalFromSignalReuse
}

// forecastScore normalizes predicted change to [-1, 1], saturating at
// forecastChangeScale percent
func forecastScore(changePct float64) float64 {
	scaled := math.Min(math.Abs(changePct)/forecastChangeScale, 1)
	if changePct < 0 {
		return -scaled
	}
	return scaled
}

// labelScore maps a signal label onto the common [-1, 1] scale
func labelScore(label domain.SignalLabel) float64 {
	switch label {
	case domain.SignalStrongBuy:
		return 1
	case domain.SignalBuy:
		return 0.5
	case domain.SignalSell:
		return -0.5
	case domain.SignalStrongSell:
		return -1
	default:
		return 0
	}
}

// riskScore only ever penalizes: elevated risk pushes away from BUY,
// low risk contributes nothing
func riskScore(level domain.RiskLevel) float64 {
	switch level {
	case domain.RiskHigh:
		return -1
	case domain.RiskMedium:
		return -0.3
	default:
		return 0
	}
}

func (e *Engine) finalLabel(composite float64) domain.SignalLabel {
	switch {
	case composite > e.cfg.StrongThreshold:
		return domain.SignalStrongBuy
	case composite > e.cfg.ActionThreshold:
		return domain.SignalBuy
	case composite < -e.cfg.StrongThreshold:
		return domain.SignalStrongSell
	case composite < -e.cfg.ActionThreshold:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}

func (e *Engine) confidence(composite float64, risk domain.RiskLevel) domain.ConfidenceLabel {
	abs := math.Abs(composite)
	switch {
	case abs > e.cfg.HighConfidence && risk != domain.RiskHigh:
		return domain.ConfidenceHigh
	case abs > e.cfg.ActionThreshold:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// reasoning produces one deterministic line per component, derived only from
// the numbers already present in the breakdown
func reasoning(components map[string]Component, technicalSource string) []string {
	lines := make([]string, 0, len(components))
	for _, name := range componentOrder {
		c, ok := components[name]
		if !ok || c.Weight == 0 {
			continue
		}

		direction := "neutral"
		if c.Score > 0 {
			direction = "favours buying"
		} else if c.Score < 0 {
			direction = "favours selling"
		}
		if name == ComponentRisk && c.Score < 0 {
			direction = "penalizes buying"
		}

		line := fmt.Sprintf("%s component %s: score %+.2f at weight %.0f%% contributes %+.3f",
			name, direction, c.Score, c.Weight*100, c.Weighted)
		if name == ComponentTechnical && technicalSource == TechnicalFromSignalReuse {
			line += " (reuses the forecast signal, not independent evidence)"
		}
		lines = append(lines, line)
	}
	return lines
}

func newComponent(score, weight float64) Component {
	return Component{Score: score, Weight: weight, Weighted: score * weight}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
