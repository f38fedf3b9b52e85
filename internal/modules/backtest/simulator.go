// Package backtest replays historical prices against point-in-time signals
// and tracks a virtual account to measure strategy performance.
package backtest

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quantlab/stockpulse/internal/domain"
)

// Outperformance thresholds (percentage points vs buy-and-hold) for the
// qualitative verdict
const excellentOutperformancePct = 5.0

// PeriodValue is the account state at the end of one simulated period
type PeriodValue struct {
	Timestamp      int64   `json:"timestamp"` // Unix seconds
	PortfolioValue float64 `json:"portfolio_value"`
	Price          float64 `json:"price"`
	Shares         int     `json:"shares"`
	Cash           float64 `json:"cash"`
}

// Result holds the outcome of one backtest run.
// Fully derived from the simulated account and the input series.
type Result struct {
	Symbol                string         `json:"symbol"`
	InitialCapital        float64        `json:"initial_capital"`
	FinalValue            float64        `json:"final_value"`
	TotalReturnPct        float64        `json:"total_return_pct"`
	BuyHoldReturnPct      float64        `json:"buy_hold_return_pct"`
	OutperformancePct     float64        `json:"outperformance_pct"`
	PredictionAccuracyPct float64        `json:"prediction_accuracy_pct"`
	Trades                []domain.Trade `json:"trades"`
	History               []PeriodValue  `json:"history"`
	Verdict               string         `json:"verdict"`
}

// Simulator runs long-only trading simulations. Each run owns a private
// virtual account, so no locking is needed.
type Simulator struct {
	log zerolog.Logger
}

// NewSimulator creates a new backtest simulator
func NewSimulator(log zerolog.Logger) *Simulator {
	return &Simulator{log: log.With().Str("component", "backtest").Logger()}
}

// Run replays the price series against the signal series.
//
// The strategy is a two-state machine: FLAT (no shares) and LONG. A BUY or
// STRONG_BUY signal while FLAT spends all available cash on whole shares at
// that period's actual price, the unspent remainder stays in cash. A SELL or
// STRONG_SELL signal while LONG liquidates the entire position. HOLD does
// nothing. Any open position is liquidated at the final period's price to
// compute the final value (without recording a trade).
//
// Periods are processed strictly in input order; each period's decision
// depends on the cash and position carried from the previous one, so the
// series must be ordered by non-decreasing timestamp.
func (s *Simulator) Run(symbol string, prices []domain.PricePoint, signals []domain.Signal, initialCapital float64) (Result, error) {
	if len(prices) < 2 {
		return Result{}, domain.InsufficientDataError{Op: "backtest", Required: 2, Actual: len(prices)}
	}
	if len(signals) != len(prices) {
		return Result{}, domain.DataAlignmentError{
			Op:        "backtest",
			LeftName:  "prices",
			LeftLen:   len(prices),
			RightName: "signals",
			RightLen:  len(signals),
		}
	}
	if initialCapital <= 0 {
		return Result{}, domain.ValidationError{
			Field:   "initial_capital",
			Message: fmt.Sprintf("must be positive, got %.2f", initialCapital),
		}
	}
	for i, p := range prices {
		if p.Price <= 0 {
			return Result{}, domain.InvalidPriceError{Field: fmt.Sprintf("prices[%d]", i), Value: p.Price}
		}
		if i > 0 && p.Timestamp.Before(prices[i-1].Timestamp) {
			return Result{}, domain.ValidationError{
				Field:   "prices",
				Message: fmt.Sprintf("timestamps must be non-decreasing, period %d precedes period %d", i, i-1),
			}
		}
	}

	cash := initialCapital
	shares := 0
	result := Result{
		Symbol:         symbol,
		InitialCapital: initialCapital,
		Trades:         []domain.Trade{},
		History:        make([]PeriodValue, 0, len(prices)),
	}

	for i, period := range prices {
		price := period.Price
		signal := signals[i]

		switch {
		case signal.Label.IsBuy() && shares == 0:
			bought := int(cash / price)
			if bought > 0 {
				cash -= float64(bought) * price
				shares = bought
				result.Trades = append(result.Trades, domain.Trade{
					Timestamp: period.Timestamp,
					Symbol:    symbol,
					Action:    domain.ActionBuy,
					Price:     price,
					Shares:    bought,
					CashAfter: cash,
				})
			}

		case signal.Label.IsSell() && shares > 0:
			cash += float64(shares) * price
			result.Trades = append(result.Trades, domain.Trade{
				Timestamp: period.Timestamp,
				Symbol:    symbol,
				Action:    domain.ActionSell,
				Price:     price,
				Shares:    shares,
				CashAfter: cash,
			})
			shares = 0
		}

		result.History = append(result.History, PeriodValue{
			Timestamp:      period.Timestamp.Unix(),
			PortfolioValue: cash + float64(shares)*price,
			Price:          price,
			Shares:         shares,
			Cash:           cash,
		})
	}

	// Terminal liquidation at the final period's price
	finalPrice := prices[len(prices)-1].Price
	result.FinalValue = cash + float64(shares)*finalPrice
	result.TotalReturnPct = (result.FinalValue - initialCapital) / initialCapital * 100
	result.BuyHoldReturnPct = buyHoldReturnPct(prices, initialCapital)
	result.OutperformancePct = result.TotalReturnPct - result.BuyHoldReturnPct
	result.PredictionAccuracyPct = predictionAccuracyPct(prices, signals)
	result.Verdict = verdict(result.TotalReturnPct, result.OutperformancePct)

	s.log.Info().
		Str("symbol", symbol).
		Int("periods", len(prices)).
		Int("trades", len(result.Trades)).
		Float64("total_return_pct", result.TotalReturnPct).
		Float64("buy_hold_return_pct", result.BuyHoldReturnPct).
		Msg("Backtest complete")

	return result, nil
}

// buyHoldReturnPct simulates a single whole-share BUY at period 0 held to the
// end, with the unspent remainder kept as cash
func buyHoldReturnPct(prices []domain.PricePoint, initialCapital float64) float64 {
	first := prices[0].Price
	last := prices[len(prices)-1].Price

	shares := int(initialCapital / first)
	remainder := initialCapital - float64(shares)*first
	finalValue := float64(shares)*last + remainder

	return (finalValue - initialCapital) / initialCapital * 100
}

// predictionAccuracyPct measures how often a signal's predicted direction
// matched the subsequent actual price change
func predictionAccuracyPct(prices []domain.PricePoint, signals []domain.Signal) float64 {
	correct := 0
	total := 0
	for i := 0; i+1 < len(prices); i++ {
		predicted := sign(signals[i].PredictedChangePct)
		actual := sign(prices[i+1].Price - prices[i].Price)
		if predicted == actual {
			correct++
		}
		total++
	}
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// verdict gives a qualitative interpretation of the strategy result
func verdict(totalReturnPct, outperformancePct float64) string {
	switch {
	case outperformancePct > excellentOutperformancePct:
		return "EXCELLENT - strategy significantly outperformed buy and hold"
	case outperformancePct > 0:
		return "GOOD - strategy outperformed buy and hold"
	case totalReturnPct > 0:
		return "MODERATE - positive returns but underperformed buy and hold"
	default:
		return "POOR - strategy produced losses"
	}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
