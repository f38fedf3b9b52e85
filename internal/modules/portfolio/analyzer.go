// Package portfolio aggregates per-instrument return series into weighted
// portfolio metrics.
package portfolio

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/quantlab/stockpulse/internal/domain"
)

// weightTolerance is how far the weight sum may drift from 1.0
const weightTolerance = 0.01

// Spec describes the portfolio to analyze: parallel instrument and weight
// sequences. Weights must sum to 1.0 within tolerance.
type Spec struct {
	Instruments []string  `json:"instruments"`
	Weights     []float64 `json:"weights"`
}

// Result holds portfolio-level metrics derived from the weighted return
// series. Total return is the simple sum of per-period portfolio returns
// (the input series are already period-over-period percentages).
type Result struct {
	TotalReturnPct   float64   `json:"total_return_pct"`
	AverageReturnPct float64   `json:"average_return_pct"`
	VolatilityPct    float64   `json:"volatility_pct"`
	SharpeRatio      float64   `json:"sharpe_ratio"`
	PeriodReturns    []float64 `json:"period_returns"`
}

// InstrumentStats holds per-instrument metrics for comparison
type InstrumentStats struct {
	Instrument       string  `json:"instrument"`
	TotalReturnPct   float64 `json:"total_return_pct"`
	AverageReturnPct float64 `json:"average_return_pct"`
	VolatilityPct    float64 `json:"volatility_pct"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
}

// Comparison ranks instruments against each other
type Comparison struct {
	Stats            []InstrumentStats `json:"stats"` // sorted by total return, best first
	BestReturn       string            `json:"best_return"`
	LowestVolatility string            `json:"lowest_volatility"`
	BestSharpe       string            `json:"best_sharpe"`
}

// Analyzer computes weighted portfolio metrics. Stateless.
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates a new portfolio analyzer
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{log: log.With().Str("component", "portfolio").Logger()}
}

// Analyze validates the spec and computes weighted portfolio metrics from the
// per-instrument percentage return series.
func (a *Analyzer) Analyze(spec Spec, returns map[string][]float64) (Result, error) {
	if err := a.validate(spec, returns); err != nil {
		return Result{}, err
	}

	periods := len(returns[spec.Instruments[0]])
	portfolioReturns := make([]float64, periods)
	for i, instrument := range spec.Instruments {
		weight := spec.Weights[i]
		for t, r := range returns[instrument] {
			portfolioReturns[t] += weight * r
		}
	}

	avg := stat.Mean(portfolioReturns, nil)
	vol := stat.PopStdDev(portfolioReturns, nil)

	result := Result{
		TotalReturnPct:   sum(portfolioReturns),
		AverageReturnPct: avg,
		VolatilityPct:    vol,
		SharpeRatio:      safeSharpe(avg, vol),
		PeriodReturns:    portfolioReturns,
	}

	a.log.Debug().
		Int("instruments", len(spec.Instruments)).
		Int("periods", periods).
		Float64("total_return_pct", result.TotalReturnPct).
		Float64("sharpe", result.SharpeRatio).
		Msg("Portfolio analyzed")

	return result, nil
}

// Compare computes per-instrument metrics and ranks them
func (a *Analyzer) Compare(returns map[string][]float64) (Comparison, error) {
	if len(returns) == 0 {
		return Comparison{}, domain.ValidationError{Field: "returns", Message: "no instruments provided"}
	}

	stats := make([]InstrumentStats, 0, len(returns))
	for instrument, series := range returns {
		if len(series) == 0 {
			return Comparison{}, domain.InsufficientDataError{
				Op:       fmt.Sprintf("compare %s", instrument),
				Required: 1,
				Actual:   0,
			}
		}

		avg := stat.Mean(series, nil)
		vol := stat.PopStdDev(series, nil)
		stats = append(stats, InstrumentStats{
			Instrument:       instrument,
			TotalReturnPct:   sum(series),
			AverageReturnPct: avg,
			VolatilityPct:    vol,
			SharpeRatio:      safeSharpe(avg, vol),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalReturnPct != stats[j].TotalReturnPct {
			return stats[i].TotalReturnPct > stats[j].TotalReturnPct
		}
		return stats[i].Instrument < stats[j].Instrument
	})

	comparison := Comparison{Stats: stats}
	comparison.BestReturn = stats[0].Instrument

	lowestVol := stats[0]
	bestSharpe := stats[0]
	for _, s := range stats[1:] {
		if s.VolatilityPct < lowestVol.VolatilityPct {
			lowestVol = s
		}
		if s.SharpeRatio > bestSharpe.SharpeRatio {
			bestSharpe = s
		}
	}
	comparison.LowestVolatility = lowestVol.Instrument
	comparison.BestSharpe = bestSharpe.Instrument

	return comparison, nil
}

// validate rejects malformed specs before any computation
func (a *Analyzer) validate(spec Spec, returns map[string][]float64) error {
	if len(spec.Instruments) == 0 {
		return domain.ValidationError{Field: "instruments", Message: "at least one instrument is required"}
	}
	if len(spec.Instruments) != len(spec.Weights) {
		return domain.ValidationError{
			Field:   "weights",
			Message: fmt.Sprintf("got %d weights for %d instruments", len(spec.Weights), len(spec.Instruments)),
		}
	}

	seen := make(map[string]bool, len(spec.Instruments))
	var weightSum float64
	for i, instrument := range spec.Instruments {
		if seen[instrument] {
			return domain.ValidationError{
				Field:   "instruments",
				Message: fmt.Sprintf("duplicate instrument %q", instrument),
			}
		}
		seen[instrument] = true

		w := spec.Weights[i]
		if w < 0 || w > 1 {
			return domain.ValidationError{
				Field:   "weights",
				Message: fmt.Sprintf("weight for %s must be in [0, 1], got %.4f", instrument, w),
			}
		}
		weightSum += w
	}

	if math.Abs(weightSum-1.0) > weightTolerance {
		return domain.ValidationError{
			Field:   "weights",
			Message: fmt.Sprintf("weights must sum to 1.0 (tolerance %.2f), got %.4f", weightTolerance, weightSum),
		}
	}

	var periods int
	for i, instrument := range spec.Instruments {
		series, ok := returns[instrument]
		if !ok {
			return domain.ValidationError{
				Field:   "returns",
				Message: fmt.Sprintf("missing return series for %s", instrument),
			}
		}
		if len(series) == 0 {
			return domain.InsufficientDataError{
				Op:       fmt.Sprintf("portfolio analysis for %s", instrument),
				Required: 1,
				Actual:   0,
			}
		}
		if i == 0 {
			periods = len(series)
			continue
		}
		if len(series) != periods {
			return domain.DataAlignmentError{
				Op:        "portfolio analysis",
				LeftName:  spec.Instruments[0],
				LeftLen:   periods,
				RightName: instrument,
				RightLen:  len(series),
			}
		}
	}

	return nil
}

// safeSharpe guards the zero-volatility case instead of dividing by zero
func safeSharpe(avg, vol float64) float64 {
	if vol == 0 {
		return 0
	}
	return avg / vol
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
