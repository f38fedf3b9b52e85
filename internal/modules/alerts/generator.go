// Package alerts derives actionable trading alerts from recent price,
// sentiment and forecast behaviour.
package alerts

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/quantlab/stockpulse/internal/domain"
)

// Alert type constants
const (
	TypeMACrossoverBullish = "MA_CROSSOVER_BULLISH"
	TypeMACrossoverBearish = "MA_CROSSOVER_BEARISH"
	TypeVolatilitySpike    = "VOLATILITY_SPIKE"
	TypePriceMovement      = "PRICE_MOVEMENT"
	TypeBreakoutHigh       = "BREAKOUT_HIGH"
	TypeBreakoutLow        = "BREAKOUT_LOW"
	TypeSentimentBullish   = "SENTIMENT_BULLISH"
	TypeSentimentBearish   = "SENTIMENT_BEARISH"
	TypeForecastBullish    = "FORECAST_BULLISH"
	TypeForecastBearish    = "FORECAST_BEARISH"
)

const (
	minHistory = 10 // periods of price history required before any rule fires

	shortMAPeriod = 5
	longMAPeriod  = 10

	volatilityWindow   = 10
	volatilityBaseline = 20  // lookback for the rolling baseline
	volatilityMultiple = 1.5 // current vol vs baseline to flag a spike

	dailyMovePct      = 3.0  // single-period move worth flagging
	breakoutProximity = 0.01 // within 1% of the 10-period extreme
	sentimentDelta    = 0.2  // shift vs average sentiment
	forecastMovePct   = 5.0  // predicted move worth flagging
	minForecastPoints = 5
)

// Alert is one actionable condition with a severity and a suggested response
type Alert struct {
	Type           string          `json:"type"`
	Severity       domain.Severity `json:"severity"`
	Title          string          `json:"title"`
	Message        string          `json:"message"`
	Recommendation string          `json:"recommendation"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Report is the full alert set for one instrument, sorted by severity
type Report struct {
	Symbol      string    `json:"symbol"`
	Alerts      []Alert   `json:"alerts"`
	AlertCount  int       `json:"alert_count"`
	HighCount   int       `json:"high_priority_count"`
	MediumCount int       `json:"medium_priority_count"`
	LowCount    int       `json:"low_priority_count"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Input carries the data the alert rules inspect. Sentiment and Forecast
// are optional; rules needing them are skipped when absent.
type Input struct {
	Symbol    string
	Prices    []domain.PricePoint
	Sentiment []float64
	Forecast  []domain.ForecastPoint
}

// Generator evaluates every alert rule against one instrument's recent data.
// Stateless; each call works only on its inputs.
type Generator struct {
	log zerolog.Logger
	now func() time.Time
}

// NewGenerator creates a new alert generator
func NewGenerator(log zerolog.Logger) *Generator {
	return &Generator{
		log: log.With().Str("component", "alerts").Logger(),
		now: time.Now,
	}
}

// Generate evaluates every rule and returns the triggered alerts sorted by
// severity, highest first. With fewer than 10 price periods no rule fires
// and an empty report is returned.
func (g *Generator) Generate(input Input) Report {
	report := Report{
		Symbol:      input.Symbol,
		Alerts:      []Alert{},
		GeneratedAt: g.now(),
	}

	if len(input.Prices) < minHistory {
		g.log.Debug().
			Str("symbol", input.Symbol).
			Int("periods", len(input.Prices)).
			Msg("Not enough history for alert rules")
		return report
	}

	prices := make([]float64, len(input.Prices))
	for i, p := range input.Prices {
		prices[i] = p.Price
	}
	current := prices[len(prices)-1]

	report.Alerts = append(report.Alerts, g.maCrossover(current, prices)...)
	report.Alerts = append(report.Alerts, g.volatilitySpike(prices)...)
	report.Alerts = append(report.Alerts, g.priceMovement(input.Symbol, prices)...)
	report.Alerts = append(report.Alerts, g.breakout(input.Symbol, current, prices)...)
	report.Alerts = append(report.Alerts, g.sentimentShift(input.Sentiment)...)
	report.Alerts = append(report.Alerts, g.forecastMove(current, input.Forecast)...)

	sort.SliceStable(report.Alerts, func(i, j int) bool {
		return severityRank(report.Alerts[i].Severity) < severityRank(report.Alerts[j].Severity)
	})

	report.AlertCount = len(report.Alerts)
	for _, alert := range report.Alerts {
		switch alert.Severity {
		case domain.SeverityHigh:
			report.HighCount++
		case domain.SeverityMedium:
			report.MediumCount++
		case domain.SeverityLow:
			report.LowCount++
		}
	}

	g.log.Debug().
		Str("symbol", input.Symbol).
		Int("alerts", report.AlertCount).
		Int("high", report.HighCount).
		Msg("Alerts generated")

	return report
}

// maCrossover fires when the price sits above (or below) both short moving
// averages in order
func (g *Generator) maCrossover(current float64, prices []float64) []Alert {
	shortMA := lastValid(talib.Sma(prices, shortMAPeriod))
	longMA := lastValid(talib.Sma(prices, longMAPeriod))
	if math.IsNaN(shortMA) || math.IsNaN(longMA) {
		return nil
	}

	switch {
	case current > shortMA && shortMA > longMA:
		return []Alert{g.alert(TypeMACrossoverBullish, domain.SeverityHigh,
			"Bullish Moving Average Crossover",
			fmt.Sprintf("Price (%.2f) is above both the 5-period (%.2f) and 10-period (%.2f) moving averages", current, shortMA, longMA),
			"Consider buying or holding long positions")}
	case current < shortMA && shortMA < longMA:
		return []Alert{g.alert(TypeMACrossoverBearish, domain.SeverityHigh,
			"Bearish Moving Average Crossover",
			fmt.Sprintf("Price (%.2f) is below both the 5-period (%.2f) and 10-period (%.2f) moving averages", current, shortMA, longMA),
			"Consider selling or avoiding new long positions")}
	}
	return nil
}

// volatilitySpike compares the latest 10-period volatility with the average
// rolling 5-period volatility over the trailing baseline window
func (g *Generator) volatilitySpike(prices []float64) []Alert {
	if len(prices) < volatilityBaseline+shortMAPeriod {
		return nil
	}

	recent := prices[len(prices)-volatilityWindow:]
	vol := stat.PopStdDev(recent, nil)

	var baseline []float64
	for i := len(prices) - volatilityBaseline; i <= len(prices)-shortMAPeriod-1; i++ {
		baseline = append(baseline, stat.PopStdDev(prices[i:i+shortMAPeriod], nil))
	}
	avgVol := stat.Mean(baseline, nil)

	if avgVol <= 0 || vol <= avgVol*volatilityMultiple {
		return nil
	}

	return []Alert{g.alert(TypeVolatilitySpike, domain.SeverityMedium,
		"Volatility Spike Detected",
		fmt.Sprintf("Current volatility (%.2f) is %.0f%% above average (%.2f)", vol, vol/avgVol*100-100, avgVol),
		"Increased risk - consider reducing position size or setting tighter stop-losses")}
}

// priceMovement fires on a large single-period percentage move
func (g *Generator) priceMovement(symbol string, prices []float64) []Alert {
	prev := prices[len(prices)-2]
	current := prices[len(prices)-1]
	if prev <= 0 {
		return nil
	}

	change := (current - prev) / prev * 100
	if math.Abs(change) <= dailyMovePct {
		return nil
	}

	if change > 0 {
		return []Alert{g.alert(TypePriceMovement, domain.SeverityHigh,
			"Significant Price Surge",
			fmt.Sprintf("%s has gained %.1f%% over the last period", symbol, change),
			"Take profits or add to position")}
	}
	return []Alert{g.alert(TypePriceMovement, domain.SeverityHigh,
		"Significant Price Drop",
		fmt.Sprintf("%s has lost %.1f%% over the last period", symbol, math.Abs(change)),
		"Review stop-loss levels or consider averaging down")}
}

// breakout fires when the price trades within 1% of its 10-period extreme
func (g *Generator) breakout(symbol string, current float64, prices []float64) []Alert {
	window := prices[len(prices)-longMAPeriod:]
	high := window[0]
	low := window[0]
	for _, p := range window[1:] {
		if p > high {
			high = p
		}
		if p < low {
			low = p
		}
	}

	switch {
	case current >= high*(1-breakoutProximity):
		return []Alert{g.alert(TypeBreakoutHigh, domain.SeverityMedium,
			"Near 10-Period High",
			fmt.Sprintf("%s is trading near its 10-period high of %.2f", symbol, high),
			"Potential breakout - watch for confirmation with increased volume")}
	case current <= low*(1+breakoutProximity):
		return []Alert{g.alert(TypeBreakoutLow, domain.SeverityMedium,
			"Near 10-Period Low",
			fmt.Sprintf("%s is trading near its 10-period low of %.2f", symbol, low),
			"Potential support test - watch for bounce or breakdown")}
	}
	return nil
}

// sentimentShift fires when the latest sentiment sits well away from its
// historical average
func (g *Generator) sentimentShift(sentiment []float64) []Alert {
	if len(sentiment) == 0 {
		return nil
	}

	current := sentiment[len(sentiment)-1]
	avg := stat.Mean(sentiment, nil)

	switch {
	case current > avg+sentimentDelta:
		return []Alert{g.alert(TypeSentimentBullish, domain.SeverityLow,
			"Positive Sentiment Shift",
			fmt.Sprintf("Sentiment score (%.2f) is above average (%.2f)", current, avg),
			"Positive news flow may support prices")}
	case current < avg-sentimentDelta:
		return []Alert{g.alert(TypeSentimentBearish, domain.SeverityLow,
			"Negative Sentiment Shift",
			fmt.Sprintf("Sentiment score (%.2f) is below average (%.2f)", current, avg),
			"Negative news flow may pressure prices")}
	}
	return nil
}

// forecastMove fires when the forecast end-point implies a large move from
// the current price
func (g *Generator) forecastMove(current float64, forecast []domain.ForecastPoint) []Alert {
	if len(forecast) <= minForecastPoints || current <= 0 {
		return nil
	}

	predicted := forecast[len(forecast)-1].PredictedPrice
	change := (predicted - current) / current * 100

	switch {
	case change > forecastMovePct:
		return []Alert{g.alert(TypeForecastBullish, domain.SeverityMedium,
			"Bullish Forecast",
			fmt.Sprintf("Model predicts %.1f%% upside to %.2f", change, predicted),
			"Consider entering or adding to long positions")}
	case change < -forecastMovePct:
		return []Alert{g.alert(TypeForecastBearish, domain.SeverityMedium,
			"Bearish Forecast",
			fmt.Sprintf("Model predicts %.1f%% downside to %.2f", math.Abs(change), predicted),
			"Consider reducing exposure or hedging")}
	}
	return nil
}

func (g *Generator) alert(alertType string, severity domain.Severity, title, message, recommendation string) Alert {
	return Alert{
		Type:           alertType,
		Severity:       severity,
		Title:          title,
		Message:        message,
		Recommendation: recommendation,
		Timestamp:      g.now(),
	}
}

func severityRank(s domain.Severity) int {
	switch s {
	case domain.SeverityHigh:
		return 0
	case domain.SeverityMedium:
		return 1
	case domain.SeverityLow:
		return 2
	default:
		return 3
	}
}

// lastValid returns the last non-NaN value of a talib output series
func lastValid(values []float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return values[i]
		}
	}
	return math.NaN()
}
