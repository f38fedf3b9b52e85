// Package technical derives trend direction and market insights from recent
// price action.
package technical

import (
	"math"

	talib "github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/quantlab/stockpulse/internal/domain"
)

// Moving average periods for trend classification
const (
	shortMAPeriod = 5
	longMAPeriod  = 10
)

// Trend is a directional read of recent price action. Score is in [-1, 1]
// where positive favours BUY; it is the technical component consumed by the
// recommendation engine.
type Trend struct {
	Direction domain.TrendDirection `json:"direction"`
	Score     float64               `json:"score"`
	ShortMA   float64               `json:"short_ma"`
	LongMA    float64               `json:"long_ma"`
}

// Analyzer computes technical indicators over price series
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates a new technical analyzer
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{log: log.With().Str("component", "technical").Logger()}
}

// TrendDirection classifies the trend from the relation of the latest price
// to its short and long moving averages. Histories shorter than the long MA
// period degrade to SIDEWAYS with a zero score.
func (a *Analyzer) TrendDirection(prices []float64) Trend {
	if len(prices) < longMAPeriod {
		a.log.Debug().
			Int("points", len(prices)).
			Int("required", longMAPeriod).
			Msg("Insufficient history for trend classification, defaulting to SIDEWAYS")
		return Trend{Direction: domain.TrendSideways}
	}

	last := prices[len(prices)-1]
	shortMA := lastValue(talib.Sma(prices, shortMAPeriod))
	longMA := lastValue(talib.Sma(prices, longMAPeriod))

	trend := Trend{ShortMA: shortMA, LongMA: longMA}

	switch {
	case last > shortMA && shortMA > longMA:
		trend.Direction = domain.TrendBullish
		trend.Score = 1
	case last < shortMA && shortMA < longMA:
		trend.Direction = domain.TrendBearish
		trend.Score = -1
	case last > longMA:
		trend.Direction = domain.TrendModeratelyBullish
		trend.Score = 0.5
	case last < longMA:
		trend.Direction = domain.TrendModeratelyBearish
		trend.Score = -0.5
	default:
		trend.Direction = domain.TrendSideways
	}

	return trend
}

// Momentum classification thresholds (mean per-period return)
const momentumStrong = 0.01

// Insights is a qualitative read of recent market behaviour for one instrument
type Insights struct {
	CurrentPrice  float64 `json:"current_price"`
	Trend         Trend   `json:"trend"`
	VolatilityPct float64 `json:"volatility_pct"`
	Volatility    string  `json:"volatility_assessment"` // LOW / MODERATE / HIGH
	Momentum      string  `json:"momentum"`
	MomentumValue float64 `json:"momentum_value"`
	Support       float64 `json:"support"`
	Resistance    float64 `json:"resistance"`
	Outlook       string  `json:"outlook"` // BULLISH / NEUTRAL / BEARISH
}

// MarketInsights summarises trend, volatility, momentum and key levels over
// the recent price history
func (a *Analyzer) MarketInsights(prices []float64) (Insights, error) {
	if len(prices) < shortMAPeriod {
		return Insights{}, domain.InsufficientDataError{
			Op:       "market insights",
			Required: shortMAPeriod,
			Actual:   len(prices),
		}
	}

	last := prices[len(prices)-1]
	trend := a.TrendDirection(prices)

	insights := Insights{
		CurrentPrice: last,
		Trend:        trend,
	}

	// Volatility relative to the recent average price
	recent := tail(prices, longMAPeriod)
	avg := stat.Mean(recent, nil)
	if avg > 0 {
		insights.VolatilityPct = stat.StdDev(recent, nil) / avg * 100
	}
	switch {
	case insights.VolatilityPct > 5:
		insights.Volatility = "HIGH"
	case insights.VolatilityPct > 2:
		insights.Volatility = "MODERATE"
	default:
		insights.Volatility = "LOW"
	}

	// Momentum: mean of the last few period returns
	returns := periodReturns(prices)
	momentum := stat.Mean(tail(returns, shortMAPeriod), nil)
	insights.MomentumValue = momentum
	switch {
	case momentum > momentumStrong:
		insights.Momentum = "STRONG_POSITIVE"
	case momentum > 0:
		insights.Momentum = "SLIGHTLY_POSITIVE"
	case momentum < -momentumStrong:
		insights.Momentum = "STRONG_NEGATIVE"
	default:
		insights.Momentum = "SLIGHTLY_NEGATIVE"
	}

	// Support and resistance from the recent range
	window := tail(prices, longMAPeriod)
	insights.Support = window[0]
	insights.Resistance = window[0]
	for _, p := range window {
		insights.Support = math.Min(insights.Support, p)
		insights.Resistance = math.Max(insights.Resistance, p)
	}

	insights.Outlook = outlook(trend.Direction, insights.Momentum)

	return insights, nil
}

// outlook requires trend and momentum to agree before leaving NEUTRAL
func outlook(trend domain.TrendDirection, momentum string) string {
	bullishTrend := trend == domain.TrendBullish || trend == domain.TrendModeratelyBullish
	bearishTrend := trend == domain.TrendBearish || trend == domain.TrendModeratelyBearish

	switch {
	case bullishTrend && momentum == "STRONG_POSITIVE":
		return "BULLISH"
	case bearishTrend && momentum == "STRONG_NEGATIVE":
		return "BEARISH"
	default:
		return "NEUTRAL"
	}
}

// lastValue returns the final element of a talib output series, skipping
// the NaN warm-up values talib emits for early periods
func lastValue(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) {
			return series[i]
		}
	}
	return 0
}

// tail returns the last n elements (or the whole slice if shorter)
func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
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
