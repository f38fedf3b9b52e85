package alerts

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/stockpulse/internal/domain"
)

func newTestGenerator() *Generator {
	return NewGenerator(zerolog.Nop())
}

func pricePoints(prices []float64) []domain.PricePoint {
	base := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	points := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = domain.PricePoint{Timestamp: base.AddDate(0, 0, i), Price: p}
	}
	return points
}

func findAlert(t *testing.T, report Report, alertType string) Alert {
	t.Helper()
	for _, alert := range report.Alerts {
		if alert.Type == alertType {
			return alert
		}
	}
	t.Fatalf("alert %s not found in %v", alertType, report.Alerts)
	return Alert{}
}

func hasAlert(report Report, alertType string) bool {
	for _, alert := range report.Alerts {
		if alert.Type == alertType {
			return true
		}
	}
	return false
}

func TestGenerate_InsufficientHistoryProducesNoAlerts(t *testing.T) {
	g := newTestGenerator()

	report := g.Generate(Input{
		Symbol: "ACME",
		Prices: pricePoints([]float64{100, 101, 102}),
	})

	assert.Empty(t, report.Alerts)
	assert.Equal(t, 0, report.AlertCount)
}

func TestGenerate_BullishMACrossover(t *testing.T) {
	g := newTestGenerator()

	// Steadily rising: price above both moving averages
	prices := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111}
	report := g.Generate(Input{Symbol: "ACME", Prices: pricePoints(prices)})

	alert := findAlert(t, report, TypeMACrossoverBullish)
	assert.Equal(t, domain.SeverityHigh, alert.Severity)
	assert.Contains(t, alert.Message, "above both")
}

func TestGenerate_BearishMACrossover(t *testing.T) {
	g := newTestGenerator()

	prices := []float64{111, 110, 109, 108, 107, 106, 105, 104, 103, 102, 101, 100}
	report := g.Generate(Input{Symbol: "ACME", Prices: pricePoints(prices)})

	alert := findAlert(t, report, TypeMACrossoverBearish)
	assert.Equal(t, domain.SeverityHigh, alert.Severity)
}

func TestGenerate_SignificantPriceMove(t *testing.T) {
	g := newTestGenerator()

	// Flat then a 4% jump on the last period
	prices := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 104}
	report := g.Generate(Input{Symbol: "ACME", Prices: pricePoints(prices)})

	alert := findAlert(t, report, TypePriceMovement)
	assert.Equal(t, domain.SeverityHigh, alert.Severity)
	assert.Contains(t, alert.Message, "gained")
}

func TestGenerate_SmallMoveDoesNotFire(t *testing.T) {
	g := newTestGenerator()

	prices := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 102}
	report := g.Generate(Input{Symbol: "ACME", Prices: pricePoints(prices)})

	assert.False(t, hasAlert(report, TypePriceMovement))
}

func TestGenerate_BreakoutNearHighAndLow(t *testing.T) {
	g := newTestGenerator()

	rising := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110}
	report := g.Generate(Input{Symbol: "ACME", Prices: pricePoints(rising)})
	assert.True(t, hasAlert(report, TypeBreakoutHigh))
	assert.False(t, hasAlert(report, TypeBreakoutLow))

	falling := []float64{110, 109, 108, 107, 106, 105, 104, 103, 102, 101, 100}
	report = g.Generate(Input{Symbol: "ACME", Prices: pricePoints(falling)})
	assert.True(t, hasAlert(report, TypeBreakoutLow))
	assert.False(t, hasAlert(report, TypeBreakoutHigh))
}

func TestGenerate_VolatilitySpike(t *testing.T) {
	g := newTestGenerator()

	// Calm for 15 periods, then 10 periods of wide oscillation
	prices := make([]float64, 0, 25)
	for i := 0; i < 15; i++ {
		prices = append(prices, 100)
	}
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			prices = append(prices, 110)
		} else {
			prices = append(prices, 90)
		}
	}

	report := g.Generate(Input{Symbol: "ACME", Prices: pricePoints(prices)})

	alert := findAlert(t, report, TypeVolatilitySpike)
	assert.Equal(t, domain.SeverityMedium, alert.Severity)
}

func TestGenerate_SentimentShift(t *testing.T) {
	g := newTestGenerator()
	flat := pricePoints([]float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100})

	bullish := g.Generate(Input{
		Symbol:    "ACME",
		Prices:    flat,
		Sentiment: []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0.5},
	})
	alert := findAlert(t, bullish, TypeSentimentBullish)
	assert.Equal(t, domain.SeverityLow, alert.Severity)

	bearish := g.Generate(Input{
		Symbol:    "ACME",
		Prices:    flat,
		Sentiment: []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, -0.5},
	})
	assert.True(t, hasAlert(bearish, TypeSentimentBearish))

	neutral := g.Generate(Input{
		Symbol:    "ACME",
		Prices:    flat,
		Sentiment: []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1},
	})
	assert.False(t, hasAlert(neutral, TypeSentimentBullish))
	assert.False(t, hasAlert(neutral, TypeSentimentBearish))
}

func TestGenerate_ForecastAlerts(t *testing.T) {
	g := newTestGenerator()
	flat := pricePoints([]float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100})

	forecastTo := func(target float64) []domain.ForecastPoint {
		points := make([]domain.ForecastPoint, 6)
		for i := range points {
			points[i] = domain.ForecastPoint{PredictedPrice: target}
		}
		return points
	}

	report := g.Generate(Input{Symbol: "ACME", Prices: flat, Forecast: forecastTo(110)})
	alert := findAlert(t, report, TypeForecastBullish)
	assert.Contains(t, alert.Message, "upside")

	report = g.Generate(Input{Symbol: "ACME", Prices: flat, Forecast: forecastTo(90)})
	assert.True(t, hasAlert(report, TypeForecastBearish))

	// A move inside the threshold stays quiet
	report = g.Generate(Input{Symbol: "ACME", Prices: flat, Forecast: forecastTo(103)})
	assert.False(t, hasAlert(report, TypeForecastBullish))
	assert.False(t, hasAlert(report, TypeForecastBearish))
}

func TestGenerate_ShortForecastIgnored(t *testing.T) {
	g := newTestGenerator()
	flat := pricePoints([]float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100})

	forecast := make([]domain.ForecastPoint, 5)
	for i := range forecast {
		forecast[i] = domain.ForecastPoint{PredictedPrice: 200}
	}

	report := g.Generate(Input{Symbol: "ACME", Prices: flat, Forecast: forecast})
	assert.False(t, hasAlert(report, TypeForecastBullish))
}

func TestGenerate_SortedBySeverityWithCounts(t *testing.T) {
	g := newTestGenerator()

	// Rising series with a big final jump: MA crossover (HIGH), price surge
	// (HIGH), breakout high (MEDIUM), bullish sentiment (LOW)
	prices := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 113}
	report := g.Generate(Input{
		Symbol:    "ACME",
		Prices:    pricePoints(prices),
		Sentiment: []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0.5},
	})

	require.GreaterOrEqual(t, report.AlertCount, 4)
	assert.Equal(t, report.AlertCount, len(report.Alerts))
	assert.Equal(t, report.AlertCount, report.HighCount+report.MediumCount+report.LowCount)

	// Severity never increases as we walk the sorted list
	for i := 1; i < len(report.Alerts); i++ {
		assert.LessOrEqual(t,
			severityRank(report.Alerts[i-1].Severity),
			severityRank(report.Alerts[i].Severity))
	}
	assert.Equal(t, domain.SeverityHigh, report.Alerts[0].Severity)
}
