// Package domain provides core domain models and types.
package domain

import "time"

// SignalLabel represents a discrete trading recommendation
type SignalLabel string

const (
	SignalStrongBuy  SignalLabel = "STRONG_BUY"
	SignalBuy        SignalLabel = "BUY"
	SignalHold       SignalLabel = "HOLD"
	SignalSell       SignalLabel = "SELL"
	SignalStrongSell SignalLabel = "STRONG_SELL"
)

// IsBuy reports whether the label recommends opening or adding to a position
func (l SignalLabel) IsBuy() bool {
	return l == SignalBuy || l == SignalStrongBuy
}

// IsSell reports whether the label recommends reducing or closing a position
func (l SignalLabel) IsSell() bool {
	return l == SignalSell || l == SignalStrongSell
}

// Severity represents anomaly severity
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// RiskLevel represents the overall risk classification for an instrument
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// TradeAction represents the side of a simulated or paper trade
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// ForecastPoint is one point of an externally produced price forecast.
// Immutable once handed to the core.
type ForecastPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	PredictedPrice float64   `json:"predicted_price"`
	LowerBound     float64   `json:"lower_bound"`
	UpperBound     float64   `json:"upper_bound"`
}

// PricePoint is one observation of an instrument's actual price.
// Volume is optional; zero means "not available".
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume,omitempty"`
}

// Signal is a trading recommendation derived from a single forecast point.
// Created once, never mutated.
type Signal struct {
	Timestamp          time.Time   `json:"timestamp"`
	Label              SignalLabel `json:"label"`
	Strength           float64     `json:"strength"` // 0-100
	PredictedChangePct float64     `json:"predicted_change_pct"`
	Confidence         float64     `json:"confidence"` // 0-1
}

// Anomaly is a detected statistical outlier in recent price/volume behaviour
type Anomaly struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// AnomalyReport is the output of the risk classifier.
// Computed fresh per request; stateless across calls.
type AnomalyReport struct {
	Anomalies []Anomaly `json:"anomalies"`
	RiskLevel RiskLevel `json:"risk_level"`
}

// Trade is one executed simulated or paper trade.
// Immutable once appended to a trade log.
type Trade struct {
	Timestamp time.Time   `json:"timestamp"`
	Symbol    string      `json:"symbol"`
	Action    TradeAction `json:"action"`
	Price     float64     `json:"price"`
	Shares    int         `json:"shares"`
	CashAfter float64     `json:"cash_after"`
	OrderID   string      `json:"order_id,omitempty"`
	PnL       float64     `json:"pnl,omitempty"` // Realized on sells, zero on buys
}

// TrendDirection is a qualitative trend classification derived from
// recent moving averages
type TrendDirection string

const (
	TrendBullish           TrendDirection = "BULLISH"
	TrendModeratelyBullish TrendDirection = "MODERATELY_BULLISH"
	TrendSideways          TrendDirection = "SIDEWAYS"
	TrendModeratelyBearish TrendDirection = "MODERATELY_BEARISH"
	TrendBearish           TrendDirection = "BEARISH"
)

// ConfidenceLabel is a qualitative confidence bucket for a recommendation
type ConfidenceLabel string

const (
	ConfidenceLow    ConfidenceLabel = "LOW"
	ConfidenceMedium ConfidenceLabel = "MEDIUM"
	ConfidenceHigh   ConfidenceLabel = "HIGH"
)
