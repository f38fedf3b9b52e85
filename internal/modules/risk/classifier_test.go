package risk

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/stockpulse/internal/config"
	"github.com/quantlab/stockpulse/internal/domain"
)

func newTestClassifier() *Classifier {
	return NewClassifier(config.DefaultDecisionConfig(), zerolog.Nop())
}

// pricePoints builds an ordered history from raw prices, with optional
// parallel volumes
func pricePoints(prices []float64, volumes []float64) []domain.PricePoint {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	points := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = domain.PricePoint{
			Timestamp: base.AddDate(0, 0, i),
			Price:     p,
		}
		if volumes != nil {
			points[i].Volume = volumes[i]
		}
	}
	return points
}

// flatPrices returns n identical prices
func flatPrices(n int, price float64) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = price
	}
	return prices
}

func TestClassify_InsufficientHistoryDegradesToLow(t *testing.T) {
	c := newTestClassifier()

	report := c.Classify(History{Prices: pricePoints([]float64{100, 101, 102}, nil)})

	assert.Equal(t, domain.RiskLow, report.RiskLevel)
	assert.Empty(t, report.Anomalies)
}

func TestClassify_CalmMarketIsLowRisk(t *testing.T) {
	c := newTestClassifier()

	// Gentle drift, no outliers
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i)*0.1
	}

	report := c.Classify(History{Prices: pricePoints(prices, nil)})

	assert.Equal(t, domain.RiskLow, report.RiskLevel)
	assert.Empty(t, report.Anomalies)
}

func TestClassify_PriceSpikeDetected(t *testing.T) {
	c := newTestClassifier()

	// 19 stable prices then a large jump
	prices := flatPrices(19, 100)
	for i := range prices {
		prices[i] += float64(i%3) * 0.5 // small noise so stddev is nonzero
	}
	prices = append(prices, 140)

	report := c.Classify(History{Prices: pricePoints(prices, nil)})

	require.NotEmpty(t, report.Anomalies)
	found := false
	for _, a := range report.Anomalies {
		if a.Type == AnomalyPriceSpike {
			found = true
			assert.Equal(t, domain.SeverityHigh, a.Severity)
		}
	}
	assert.True(t, found, "expected a price spike anomaly")
	assert.Equal(t, domain.RiskHigh, report.RiskLevel)
}

func TestClassify_PriceDropDetected(t *testing.T) {
	c := newTestClassifier()

	prices := flatPrices(19, 100)
	for i := range prices {
		prices[i] += float64(i%3) * 0.5
	}
	prices = append(prices, 60)

	report := c.Classify(History{Prices: pricePoints(prices, nil)})

	found := false
	for _, a := range report.Anomalies {
		if a.Type == AnomalyPriceDrop {
			found = true
		}
	}
	assert.True(t, found, "expected a price drop anomaly")
	assert.Equal(t, domain.RiskHigh, report.RiskLevel)
}

func TestClassify_VolumeSpikeIsLowSeverity(t *testing.T) {
	c := newTestClassifier()

	prices := make([]float64, 20)
	volumes := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i)*0.1
		volumes[i] = 1000
	}
	volumes[19] = 5000 // 5x the trailing average

	report := c.Classify(History{Prices: pricePoints(prices, volumes)})

	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, AnomalyVolumeSpike, report.Anomalies[0].Type)
	assert.Equal(t, domain.SeverityLow, report.Anomalies[0].Severity)
	// Any anomaly without a HIGH severity yields MEDIUM overall risk
	assert.Equal(t, domain.RiskMedium, report.RiskLevel)
}

func TestClassify_MissingVolumeSkipsVolumeRule(t *testing.T) {
	c := newTestClassifier()

	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i)*0.1
	}

	report := c.Classify(History{Prices: pricePoints(prices, nil)})

	for _, a := range report.Anomalies {
		assert.NotEqual(t, AnomalyVolumeSpike, a.Type)
	}
}

func TestClassify_VolatilitySpikeDetected(t *testing.T) {
	c := newTestClassifier()

	// Calm first stretch, violent oscillation at the end
	prices := make([]float64, 0, 20)
	for i := 0; i < 14; i++ {
		prices = append(prices, 100+float64(i%2)*0.2)
	}
	for i := 0; i < 6; i++ {
		if i%2 == 0 {
			prices = append(prices, 110)
		} else {
			prices = append(prices, 92)
		}
	}

	report := c.Classify(History{Prices: pricePoints(prices, nil)})

	found := false
	for _, a := range report.Anomalies {
		if a.Type == AnomalyVolatilitySpike {
			found = true
		}
	}
	assert.True(t, found, "expected a volatility spike anomaly")
}

func TestClassify_SentimentShiftDetected(t *testing.T) {
	c := newTestClassifier()

	prices := make([]float64, 20)
	sentiment := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i)*0.1
		sentiment[i] = 0.1 + float64(i%2)*0.02
	}
	sentiment[19] = -0.9

	report := c.Classify(History{
		Prices:    pricePoints(prices, nil),
		Sentiment: sentiment,
	})

	found := false
	for _, a := range report.Anomalies {
		if a.Type == AnomalySentimentShift {
			found = true
			assert.Equal(t, domain.SeverityMedium, a.Severity)
		}
	}
	assert.True(t, found, "expected a sentiment shift anomaly")
}

func TestClassify_ZeroVarianceNeverPanics(t *testing.T) {
	c := newTestClassifier()

	report := c.Classify(History{Prices: pricePoints(flatPrices(20, 100), nil)})

	assert.Equal(t, domain.RiskLow, report.RiskLevel)
	assert.Empty(t, report.Anomalies)
}
