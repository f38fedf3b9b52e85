// Package signals converts price forecasts into discrete trading signals.
package signals

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/quantlab/stockpulse/internal/config"
	"github.com/quantlab/stockpulse/internal/domain"
)

// Strength blend contributions. The blend is monotonic in each input and
// saturates at 0 and 100: predicted change and model confidence each
// contribute up to 40 points, sentiment alignment adds or removes up to 20.
const (
	strengthChangeCapPct  = 5.0  // |predicted change| beyond this adds nothing more
	strengthChangeWeight  = 40.0
	strengthConfWeight    = 40.0
	strengthSentimentSpan = 20.0
)

// Input holds everything needed to generate one signal.
// Sentiment and Confidence are optional; nil means "not available".
type Input struct {
	Forecast     domain.ForecastPoint
	CurrentPrice float64
	Sentiment    *float64 // averaged sentiment in [-1, 1]
	Confidence   *float64 // predictor's self-reported confidence in [0, 1]
}

// Summary aggregates a generated signal series
type Summary struct {
	TotalSignals    int                `json:"total_signals"`
	BuySignals      int                `json:"buy_signals"`
	SellSignals     int                `json:"sell_signals"`
	HoldSignals     int                `json:"hold_signals"`
	AverageStrength float64            `json:"average_strength"`
	Recommendation  domain.SignalLabel `json:"recommendation"`
}

// SeriesResult is a signal series plus its summary
type SeriesResult struct {
	Signals []domain.Signal `json:"signals"`
	Summary Summary         `json:"summary"`
}

// Generator produces trading signals from forecast points.
// It is stateless; identical inputs always produce identical signals.
type Generator struct {
	cfg config.DecisionConfig
	log zerolog.Logger
}

// NewGenerator creates a new signal generator
func NewGenerator(cfg config.DecisionConfig, log zerolog.Logger) *Generator {
	return &Generator{
		cfg: cfg,
		log: log.With().Str("component", "signals").Logger(),
	}
}

// Generate converts one forecast point into a signal.
//
// Missing sentiment defaults to 0 (neutral). Missing confidence falls back to
// the interval width of the forecast point when usable bounds are present,
// otherwise to the configured default.
func (g *Generator) Generate(in Input) (domain.Signal, error) {
	if in.CurrentPrice <= 0 {
		return domain.Signal{}, domain.InvalidPriceError{Field: "current_price", Value: in.CurrentPrice}
	}
	if in.Forecast.PredictedPrice <= 0 {
		return domain.Signal{}, domain.InvalidPriceError{Field: "predicted_price", Value: in.Forecast.PredictedPrice}
	}

	sentiment := 0.0
	if in.Sentiment != nil {
		sentiment = clamp(*in.Sentiment, -1, 1)
	}

	confidence := g.resolveConfidence(in)
	changePct := (in.Forecast.PredictedPrice - in.CurrentPrice) / in.CurrentPrice * 100

	label := g.classify(changePct, confidence, sentiment)

	return domain.Signal{
		Timestamp:          in.Forecast.Timestamp,
		Label:              label,
		Strength:           g.strength(changePct, confidence, sentiment, label),
		PredictedChangePct: changePct,
		Confidence:         confidence,
	}, nil
}

// GenerateSeries produces one signal per forecast point plus a summary.
// All points are evaluated against the same current price and sentiment,
// matching how the forecast horizon is presented to a caller.
func (g *Generator) GenerateSeries(forecast []domain.ForecastPoint, currentPrice float64, sentiment, confidence *float64) (SeriesResult, error) {
	if len(forecast) == 0 {
		return SeriesResult{}, domain.InsufficientDataError{Op: "generate signals", Required: 1, Actual: 0}
	}

	result := SeriesResult{Signals: make([]domain.Signal, 0, len(forecast))}

	var strengthSum float64
	for _, fp := range forecast {
		sig, err := g.Generate(Input{
			Forecast:     fp,
			CurrentPrice: currentPrice,
			Sentiment:    sentiment,
			Confidence:   confidence,
		})
		if err != nil {
			return SeriesResult{}, err
		}

		result.Signals = append(result.Signals, sig)
		strengthSum += sig.Strength

		switch {
		case sig.Label.IsBuy():
			result.Summary.BuySignals++
		case sig.Label.IsSell():
			result.Summary.SellSignals++
		default:
			result.Summary.HoldSignals++
		}
	}

	result.Summary.TotalSignals = len(result.Signals)
	result.Summary.AverageStrength = strengthSum / float64(len(result.Signals))
	result.Summary.Recommendation = overallRecommendation(result.Summary)

	g.log.Debug().
		Int("signals", result.Summary.TotalSignals).
		Str("recommendation", string(result.Summary.Recommendation)).
		Float64("avg_strength", result.Summary.AverageStrength).
		Msg("Signal series generated")

	return result, nil
}

// classify applies the label thresholds in priority order, first match wins
func (g *Generator) classify(changePct, confidence, sentiment float64) domain.SignalLabel {
	c := g.cfg
	switch {
	case changePct > c.StrongSignalChangePct && confidence >= c.StrongSignalMinConf && sentiment > c.StrongSignalSentiment:
		return domain.SignalStrongBuy
	case changePct > c.SignalChangePct:
		return domain.SignalBuy
	case changePct < -c.StrongSignalChangePct && confidence >= c.StrongSignalMinConf && sentiment < -c.StrongSignalSentiment:
		return domain.SignalStrongSell
	case changePct < -c.SignalChangePct:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}

// strength blends predicted change magnitude, confidence and sentiment
// alignment into a 0-100 score
func (g *Generator) strength(changePct, confidence, sentiment float64, label domain.SignalLabel) float64 {
	changePart := math.Min(math.Abs(changePct), strengthChangeCapPct) / strengthChangeCapPct * strengthChangeWeight
	confPart := confidence * strengthConfWeight

	// Sentiment in the signal's direction adds strength, opposing sentiment
	// subtracts it. HOLD has no direction, so no sentiment contribution.
	var direction float64
	switch {
	case label.IsBuy():
		direction = 1
	case label.IsSell():
		direction = -1
	}
	sentimentPart := sentiment * direction * strengthSentimentSpan

	return clamp(changePart+confPart+sentimentPart, 0, 100)
}

// resolveConfidence picks the confidence value for a signal: the predictor's
// own number if reported, else the forecast interval width, else the default
func (g *Generator) resolveConfidence(in Input) float64 {
	if in.Confidence != nil {
		return clamp(*in.Confidence, 0, 1)
	}
	if conf, ok := ConfidenceFromBounds(in.Forecast); ok {
		return conf
	}
	return g.cfg.DefaultConfidence
}

// ConfidenceFromBounds derives a confidence value from a forecast point's
// prediction interval: the narrower the interval relative to the predicted
// price, the higher the confidence. Returns false when the bounds are unusable.
func ConfidenceFromBounds(fp domain.ForecastPoint) (float64, bool) {
	if fp.PredictedPrice <= 0 || fp.UpperBound <= fp.LowerBound {
		return 0, false
	}
	ratio := (fp.UpperBound - fp.LowerBound) / fp.PredictedPrice
	return clamp(1-ratio, 0, 1), true
}

// overallRecommendation derives a single recommendation from signal counts.
// A side must clearly dominate (2x the opposite side with strong average
// strength) for a STRONG label.
func overallRecommendation(s Summary) domain.SignalLabel {
	switch {
	case s.BuySignals > s.SellSignals*2 && s.AverageStrength > 70:
		return domain.SignalStrongBuy
	case s.BuySignals > s.SellSignals && s.AverageStrength > 60:
		return domain.SignalBuy
	case s.SellSignals > s.BuySignals*2 && s.AverageStrength > 70:
		return domain.SignalStrongSell
	case s.SellSignals > s.BuySignals && s.AverageStrength > 60:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
