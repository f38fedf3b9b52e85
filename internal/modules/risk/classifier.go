// Package risk classifies recent price/volume behaviour into anomalies and
// an overall risk level.
package risk

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/quantlab/stockpulse/internal/config"
	"github.com/quantlab/stockpulse/internal/domain"
)

// Anomaly type identifiers
const (
	AnomalyPriceSpike      = "PRICE_SPIKE"
	AnomalyPriceDrop       = "PRICE_DROP"
	AnomalyVolatilitySpike = "VOLATILITY_SPIKE"
	AnomalyVolumeSpike     = "VOLUME_SPIKE"
	AnomalySentimentShift  = "SENTIMENT_SHIFT"
)

// shortVolWindow is the sub-window used for the rolling volatility series
// inside the main risk window
const shortVolWindow = 5

// History is the rolling window of observations the classifier consumes.
// Sentiment is optional and, when present, must align with Prices.
type History struct {
	Prices    []domain.PricePoint `json:"prices"`
	Sentiment []float64           `json:"sentiment,omitempty"`
}

// Classifier converts recent market statistics into an anomaly report.
// Stateless; each call computes fresh from the supplied history.
type Classifier struct {
	cfg config.DecisionConfig
	log zerolog.Logger
}

// NewClassifier creates a new risk classifier
func NewClassifier(cfg config.DecisionConfig, log zerolog.Logger) *Classifier {
	return &Classifier{
		cfg: cfg,
		log: log.With().Str("component", "risk").Logger(),
	}
}

// Classify evaluates all anomaly rules over the history window.
//
// Insufficient history degrades gracefully: the check is explicit and logged
// so the insufficiency is distinguishable from a genuinely calm market, but
// the caller always gets a usable LOW-risk report, never an error.
func (c *Classifier) Classify(history History) domain.AnomalyReport {
	report := domain.AnomalyReport{
		Anomalies: []domain.Anomaly{},
		RiskLevel: domain.RiskLow,
	}

	if len(history.Prices) < c.cfg.RiskWindow {
		c.log.Debug().
			Int("points", len(history.Prices)).
			Int("window", c.cfg.RiskWindow).
			Msg("Insufficient history for risk classification, defaulting to LOW")
		return report
	}

	window := history.Prices[len(history.Prices)-c.cfg.RiskWindow:]
	prices := make([]float64, len(window))
	volumes := make([]float64, len(window))
	for i, p := range window {
		prices[i] = p.Price
		volumes[i] = p.Volume
	}

	if a, ok := c.priceAnomaly(prices); ok {
		report.Anomalies = append(report.Anomalies, a)
	}
	if a, ok := c.volatilityAnomaly(prices); ok {
		report.Anomalies = append(report.Anomalies, a)
	}
	if a, ok := c.volumeAnomaly(volumes); ok {
		report.Anomalies = append(report.Anomalies, a)
	}
	if a, ok := c.sentimentAnomaly(history.Sentiment); ok {
		report.Anomalies = append(report.Anomalies, a)
	}

	report.RiskLevel = overallRisk(report.Anomalies)

	if len(report.Anomalies) > 0 {
		c.log.Info().
			Int("anomalies", len(report.Anomalies)).
			Str("risk_level", string(report.RiskLevel)).
			Msg("Anomalies detected")
	}

	return report
}

// priceAnomaly flags the latest price when it sits far outside the window
// distribution
func (c *Classifier) priceAnomaly(prices []float64) (domain.Anomaly, bool) {
	mean, std := stat.MeanStdDev(prices, nil)
	if std == 0 {
		return domain.Anomaly{}, false
	}

	z := (prices[len(prices)-1] - mean) / std
	if math.Abs(z) <= c.cfg.PriceZScoreMedium {
		return domain.Anomaly{}, false
	}

	anomalyType := AnomalyPriceSpike
	if z < 0 {
		anomalyType = AnomalyPriceDrop
	}

	severity := domain.SeverityMedium
	if math.Abs(z) > c.cfg.PriceZScoreHigh {
		severity = domain.SeverityHigh
	}

	return domain.Anomaly{
		Type:        anomalyType,
		Description: fmt.Sprintf("Price deviation of %.2f standard deviations from the %d-period mean", z, len(prices)),
		Severity:    severity,
	}, true
}

// volatilityAnomaly flags a jump in the rolling volatility of returns
// relative to its own trailing average
func (c *Classifier) volatilityAnomaly(prices []float64) (domain.Anomaly, bool) {
	returns := periodReturns(prices)
	if len(returns) < 2*shortVolWindow {
		return domain.Anomaly{}, false
	}

	// Rolling short-window volatility series over the returns
	var vols []float64
	for i := 0; i+shortVolWindow <= len(returns); i++ {
		vols = append(vols, stat.StdDev(returns[i:i+shortVolWindow], nil))
	}

	current := vols[len(vols)-1]
	trailing := stat.Mean(vols[:len(vols)-1], nil)
	if trailing == 0 {
		return domain.Anomaly{}, false
	}

	if current <= trailing*c.cfg.VolatilityMultiple {
		return domain.Anomaly{}, false
	}

	return domain.Anomaly{
		Type:        AnomalyVolatilitySpike,
		Description: fmt.Sprintf("Volatility %.4f is %.1fx its trailing average %.4f", current, current/trailing, trailing),
		Severity:    domain.SeverityMedium,
	}, true
}

// volumeAnomaly flags the latest volume when it exceeds a fixed multiple of
// the trailing average. Histories without volume data are skipped.
func (c *Classifier) volumeAnomaly(volumes []float64) (domain.Anomaly, bool) {
	latest := volumes[len(volumes)-1]
	trailing := stat.Mean(volumes[:len(volumes)-1], nil)
	if latest <= 0 || trailing <= 0 {
		return domain.Anomaly{}, false
	}

	if latest <= trailing*c.cfg.VolumeMultiple {
		return domain.Anomaly{}, false
	}

	return domain.Anomaly{
		Type:        AnomalyVolumeSpike,
		Description: fmt.Sprintf("Volume %.0f is %.1fx its trailing average %.0f", latest, latest/trailing, trailing),
		Severity:    domain.SeverityLow,
	}, true
}

// sentimentAnomaly flags a large shift in the latest sentiment reading
// relative to the window distribution
func (c *Classifier) sentimentAnomaly(sentiment []float64) (domain.Anomaly, bool) {
	if len(sentiment) < 3 {
		return domain.Anomaly{}, false
	}

	mean, std := stat.MeanStdDev(sentiment, nil)
	if std == 0 {
		return domain.Anomaly{}, false
	}

	latest := sentiment[len(sentiment)-1]
	z := math.Abs(latest-mean) / std
	if z <= c.cfg.SentimentShiftSigma {
		return domain.Anomaly{}, false
	}

	return domain.Anomaly{
		Type:        AnomalySentimentShift,
		Description: fmt.Sprintf("Sentiment %.2f is %.2f standard deviations from its average %.2f", latest, z, mean),
		Severity:    domain.SeverityMedium,
	}, true
}

// overallRisk aggregates anomaly severities: any HIGH anomaly makes the
// instrument HIGH risk, any anomaly at all makes it MEDIUM
func overallRisk(anomalies []domain.Anomaly) domain.RiskLevel {
	for _, a := range anomalies {
		if a.Severity == domain.SeverityHigh {
			return domain.RiskHigh
		}
	}
	if len(anomalies) > 0 {
		return domain.RiskMedium
	}
	return domain.RiskLow
}

// periodReturns computes simple period-over-period returns
func periodReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return returns
}
