package advisor

import (
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/quantlab/stockpulse/internal/config"
	"github.com/quantlab/stockpulse/internal/domain"
	"github.com/quantlab/stockpulse/internal/modules/technical"
)

func newTestEngine() *Engine {
	return NewEngine(config.DefaultDecisionConfig(), zerolog.Nop())
}

func floatPtr(v float64) *float64 { return &v }

func lowRisk() domain.AnomalyReport {
	return domain.AnomalyReport{Anomalies: []domain.Anomaly{}, RiskLevel: domain.RiskLow}
}

func highRisk() domain.AnomalyReport {
	return domain.AnomalyReport{
		Anomalies: []domain.Anomaly{{Type: "PRICE_DROP", Severity: domain.SeverityHigh}},
		RiskLevel: domain.RiskHigh,
	}
}

func strongBuySignal() domain.Signal {
	return domain.Signal{
		Label:              domain.SignalStrongBuy,
		PredictedChangePct: 3.0,
		Strength:           80,
		Confidence:         0.8,
	}
}

func TestRecommend_AllBullishEvidence(t *testing.T) {
	e := newTestEngine()

	rec := e.Recommend(Input{
		Signal:    strongBuySignal(),
		Risk:      lowRisk(),
		Sentiment: floatPtr(0.5),
		Trend:     &technical.Trend{Direction: domain.TrendBullish, Score: 1},
	})

	// forecast 1.0*0.4 + sentiment 0.5*0.2 + technical 1.0*0.25 + risk 0*0.15
	assert.InDelta(t, 0.75, rec.CompositeScore, 1e-9)
	assert.Equal(t, domain.SignalStrongBuy, rec.FinalLabel)
	assert.Equal(t, domain.ConfidenceHigh, rec.Confidence)
	assert.Equal(t, TechnicalFromTrend, rec.TechnicalSource)
}

func TestRecommend_HighRiskPenalizesAndCapsConfidence(t *testing.T) {
	e := newTestEngine()

	rec := e.Recommend(Input{
		Signal:    strongBuySignal(),
		Risk:      highRisk(),
		Sentiment: floatPtr(0.5),
		Trend:     &technical.Trend{Direction: domain.TrendBullish, Score: 1},
	})

	// Same as the all-bullish case minus the full risk penalty of 0.15
	assert.InDelta(t, 0.60, rec.CompositeScore, 1e-9)
	assert.Equal(t, domain.SignalStrongBuy, rec.FinalLabel)
	// HIGH risk can never produce HIGH confidence
	assert.Equal(t, domain.ConfidenceMedium, rec.Confidence)
}

func TestRecommend_RiskOnlyPenalizes(t *testing.T) {
	e := newTestEngine()

	neutral := Input{
		Signal: domain.Signal{Label: domain.SignalHold, PredictedChangePct: 0},
		Risk:   lowRisk(),
	}
	rec := e.Recommend(neutral)
	assert.InDelta(t, 0.0, rec.CompositeScore, 1e-9)

	neutral.Risk = highRisk()
	rec = e.Recommend(neutral)
	assert.InDelta(t, -0.15, rec.CompositeScore, 1e-9)
	assert.Equal(t, domain.SignalHold, rec.FinalLabel)
}

func TestRecommend_FinalLabelThresholds(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name      string
		changePct float64
		sentiment float64
		trend     float64
		want      domain.SignalLabel
	}{
		{"strongly positive everything", 3.0, 1.0, 1.0, domain.SignalStrongBuy},
		{"mildly positive", 1.0, 0.2, 0.5, domain.SignalBuy},
		{"neutral", 0, 0, 0, domain.SignalHold},
		{"mildly negative", -1.0, -0.2, -0.5, domain.SignalSell},
		{"strongly negative everything", -3.0, -1.0, -1.0, domain.SignalStrongSell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.Recommend(Input{
				Signal:    domain.Signal{Label: domain.SignalHold, PredictedChangePct: tt.changePct},
				Risk:      lowRisk(),
				Sentiment: floatPtr(tt.sentiment),
				Trend:     &technical.Trend{Score: tt.trend},
			})
			assert.Equal(t, tt.want, rec.FinalLabel)
		})
	}
}

func TestRecommend_SignalReuseIsMarked(t *testing.T) {
	e := newTestEngine()

	rec := e.Recommend(Input{
		Signal: strongBuySignal(),
		Risk:   lowRisk(),
	})

	assert.Equal(t, TechnicalFromSignalReuse, rec.TechnicalSource)
	// The technical component mirrors the signal label score
	assert.InDelta(t, 1.0, rec.Components[ComponentTechnical].Score, 1e-9)

	found := false
	for _, line := range rec.Reasoning {
		if strings.Contains(line, "not independent evidence") {
			found = true
		}
	}
	assert.True(t, found, "reasoning must call out the signal reuse")
}

func TestRecommend_BreakdownSumsToComposite(t *testing.T) {
	e := newTestEngine()

	rec := e.Recommend(Input{
		Signal:    domain.Signal{Label: domain.SignalBuy, PredictedChangePct: 1.5},
		Risk:      domain.AnomalyReport{RiskLevel: domain.RiskMedium},
		Sentiment: floatPtr(-0.3),
		Trend:     &technical.Trend{Score: 0.5},
	})

	var sum float64
	for _, c := range rec.Components {
		sum += c.Weighted
	}
	assert.InDelta(t, rec.CompositeScore, sum, 1e-9)

	// One reasoning line per nonzero-weight component
	assert.Len(t, rec.Reasoning, 4)
}

func TestRecommend_Pure(t *testing.T) {
	e := newTestEngine()

	inputs := []Input{
		{
			Signal:    strongBuySignal(),
			Risk:      domain.AnomalyReport{RiskLevel: domain.RiskMedium},
			Sentiment: floatPtr(0.2),
			Trend:     &technical.Trend{Direction: domain.TrendModeratelyBullish, Score: 0.5},
		},
		{
			Signal:    domain.Signal{Label: domain.SignalBuy, PredictedChangePct: 1.7},
			Risk:      domain.AnomalyReport{RiskLevel: domain.RiskMedium},
			Sentiment: floatPtr(-0.31),
			Trend:     &technical.Trend{Direction: domain.TrendModeratelyBearish, Score: -0.5},
		},
		{
			Signal: domain.Signal{Label: domain.SignalSell, PredictedChangePct: -2.3},
			Risk:   highRisk(),
		},
	}

	// The composite must be bit-identical across calls: the weighted terms
	// are summed in a fixed order, never in map iteration order, because
	// float addition is not associative.
	for _, in := range inputs {
		first := e.Recommend(in)
		for i := 0; i < 200; i++ {
			again := e.Recommend(in)
			assert.Equal(t, math.Float64bits(first.CompositeScore), math.Float64bits(again.CompositeScore))
			assert.Equal(t, first.FinalLabel, again.FinalLabel)
			assert.Equal(t, first.Reasoning, again.Reasoning)
		}
	}
}

func TestRecommend_ForecastComponentSaturates(t *testing.T) {
	e := newTestEngine()

	rec := e.Recommend(Input{
		Signal: domain.Signal{Label: domain.SignalStrongBuy, PredictedChangePct: 50},
		Risk:   lowRisk(),
	})

	assert.InDelta(t, 1.0, rec.Components[ComponentForecast].Score, 1e-9)
}
