// Package paper provides simulated trading against a virtual cash and
// position ledger, with no real money movement.
package paper

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quantlab/stockpulse/internal/domain"
)

// DefaultStartingCash funds a fresh paper account
const DefaultStartingCash = 100000.0

// Position is a held instrument inside a paper account
type Position struct {
	Shares  int     `json:"shares" msgpack:"shares"`
	AvgCost float64 `json:"avg_cost" msgpack:"avg_cost"`
}

// TradeRequest describes one trade submission against an account
type TradeRequest struct {
	Symbol    string             `json:"symbol"`
	Action    domain.TradeAction `json:"action"`
	Shares    int                `json:"shares"`
	Price     float64            `json:"price"`
	Timestamp time.Time          `json:"timestamp"`
	OrderID   string             `json:"order_id,omitempty"`
}

// Snapshot is the serializable state of an account
type Snapshot struct {
	Cash            float64             `msgpack:"cash"`
	StartingCapital float64             `msgpack:"starting_capital"`
	RealizedPnL     float64             `msgpack:"realized_pnl"`
	Positions       map[string]Position `msgpack:"positions"`
	Trades          []domain.Trade      `msgpack:"trades"`
}

// Account is a virtual cash+position ledger. It is the only mutable shared
// state in the system: a single mutex serializes concurrent trade
// submissions so interleaved read-then-write sequences cannot lose updates.
type Account struct {
	mu              sync.Mutex
	cash            float64
	startingCapital float64
	realizedPnL     float64
	positions       map[string]Position
	trades          []domain.Trade // append-only
}

// NewAccount creates an account funded with the given starting cash
func NewAccount(startingCash float64) (*Account, error) {
	if startingCash <= 0 {
		return nil, domain.ValidationError{
			Field:   "starting_cash",
			Message: fmt.Sprintf("must be positive, got %.2f", startingCash),
		}
	}
	return &Account{
		cash:            startingCash,
		startingCapital: startingCash,
		positions:       make(map[string]Position),
	}, nil
}

// Execute applies one validated trade to the account. The whole
// validate-then-mutate sequence runs under the account lock.
func (a *Account) Execute(req TradeRequest) (domain.Trade, error) {
	if req.Price <= 0 {
		return domain.Trade{}, domain.InvalidPriceError{Field: "price", Value: req.Price}
	}
	if req.Shares <= 0 {
		return domain.Trade{}, domain.ValidationError{
			Field:   "shares",
			Message: fmt.Sprintf("must be positive, got %d", req.Shares),
		}
	}
	if req.Symbol == "" {
		return domain.Trade{}, domain.ValidationError{Field: "symbol", Message: "must not be empty"}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch req.Action {
	case domain.ActionBuy:
		return a.buyLocked(req)
	case domain.ActionSell:
		return a.sellLocked(req)
	default:
		return domain.Trade{}, domain.ValidationError{
			Field:   "action",
			Message: fmt.Sprintf("must be BUY or SELL, got %q", req.Action),
		}
	}
}

func (a *Account) buyLocked(req TradeRequest) (domain.Trade, error) {
	cost := float64(req.Shares) * req.Price
	if cost > a.cash {
		return domain.Trade{}, domain.InsufficientFundsError{Available: a.cash, Required: cost}
	}

	a.cash -= cost

	pos := a.positions[req.Symbol]
	newShares := pos.Shares + req.Shares
	pos.AvgCost = (float64(pos.Shares)*pos.AvgCost + cost) / float64(newShares)
	pos.Shares = newShares
	a.positions[req.Symbol] = pos

	trade := domain.Trade{
		Timestamp: req.Timestamp,
		Symbol:    req.Symbol,
		Action:    domain.ActionBuy,
		Price:     req.Price,
		Shares:    req.Shares,
		CashAfter: a.cash,
		OrderID:   req.OrderID,
	}
	a.trades = append(a.trades, trade)
	return trade, nil
}

func (a *Account) sellLocked(req TradeRequest) (domain.Trade, error) {
	pos, ok := a.positions[req.Symbol]
	if !ok || pos.Shares < req.Shares {
		return domain.Trade{}, domain.InsufficientSharesError{
			Symbol:    req.Symbol,
			Available: pos.Shares,
			Requested: req.Shares,
		}
	}

	revenue := float64(req.Shares) * req.Price
	pnl := (req.Price - pos.AvgCost) * float64(req.Shares)

	a.cash += revenue
	a.realizedPnL += pnl

	pos.Shares -= req.Shares
	if pos.Shares == 0 {
		delete(a.positions, req.Symbol)
	} else {
		a.positions[req.Symbol] = pos
	}

	trade := domain.Trade{
		Timestamp: req.Timestamp,
		Symbol:    req.Symbol,
		Action:    domain.ActionSell,
		Price:     req.Price,
		Shares:    req.Shares,
		CashAfter: a.cash,
		OrderID:   req.OrderID,
		PnL:       pnl,
	}
	a.trades = append(a.trades, trade)
	return trade, nil
}

// PositionSummary is one position valued at a current price
type PositionSummary struct {
	Symbol       string  `json:"symbol"`
	Shares       int     `json:"shares"`
	AvgCost      float64 `json:"avg_cost"`
	CurrentValue float64 `json:"current_value"`
}

// Summary is a point-in-time view of the account
type Summary struct {
	Cash            float64           `json:"cash"`
	StartingCapital float64           `json:"starting_capital"`
	Positions       []PositionSummary `json:"positions"`
	PositionsValue  float64           `json:"positions_value"`
	TotalValue      float64           `json:"total_value"`
	RealizedPnL     float64           `json:"realized_pnl"`
	TradeCount      int               `json:"trade_count"`
	RecentTrades    []domain.Trade    `json:"recent_trades"`
}

// recentTradeCount is how many trades a summary includes
const recentTradeCount = 5

// Summarize values the account at the supplied current prices. Positions
// without a quote are valued at their average cost.
func (a *Account) Summarize(currentPrices map[string]float64) Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	summary := Summary{
		Cash:            a.cash,
		StartingCapital: a.startingCapital,
		RealizedPnL:     a.realizedPnL,
		TradeCount:      len(a.trades),
		Positions:       make([]PositionSummary, 0, len(a.positions)),
	}

	for symbol, pos := range a.positions {
		price, ok := currentPrices[symbol]
		if !ok {
			price = pos.AvgCost
		}
		value := float64(pos.Shares) * price
		summary.PositionsValue += value
		summary.Positions = append(summary.Positions, PositionSummary{
			Symbol:       symbol,
			Shares:       pos.Shares,
			AvgCost:      pos.AvgCost,
			CurrentValue: value,
		})
	}
	sortPositions(summary.Positions)

	summary.TotalValue = summary.Cash + summary.PositionsValue

	start := len(a.trades) - recentTradeCount
	if start < 0 {
		start = 0
	}
	summary.RecentTrades = append([]domain.Trade{}, a.trades[start:]...)

	return summary
}

// Snapshot captures the account state for persistence
func (a *Account) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	positions := make(map[string]Position, len(a.positions))
	for symbol, pos := range a.positions {
		positions[symbol] = pos
	}

	return Snapshot{
		Cash:            a.cash,
		StartingCapital: a.startingCapital,
		RealizedPnL:     a.realizedPnL,
		Positions:       positions,
		Trades:          append([]domain.Trade{}, a.trades...),
	}
}

// RestoreAccount rebuilds an account from a persisted snapshot
func RestoreAccount(snapshot Snapshot) (*Account, error) {
	if snapshot.StartingCapital <= 0 {
		return nil, domain.ValidationError{
			Field:   "snapshot.starting_capital",
			Message: fmt.Sprintf("must be positive, got %.2f", snapshot.StartingCapital),
		}
	}
	if snapshot.Cash < 0 {
		return nil, domain.ValidationError{
			Field:   "snapshot.cash",
			Message: fmt.Sprintf("must not be negative, got %.2f", snapshot.Cash),
		}
	}

	positions := make(map[string]Position, len(snapshot.Positions))
	for symbol, pos := range snapshot.Positions {
		if pos.Shares <= 0 {
			return nil, domain.ValidationError{
				Field:   "snapshot.positions",
				Message: fmt.Sprintf("position %s has non-positive shares %d", symbol, pos.Shares),
			}
		}
		positions[symbol] = pos
	}

	return &Account{
		cash:            snapshot.Cash,
		startingCapital: snapshot.StartingCapital,
		realizedPnL:     snapshot.RealizedPnL,
		positions:       positions,
		trades:          append([]domain.Trade{}, snapshot.Trades...),
	}, nil
}

func sortPositions(positions []PositionSummary) {
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})
}
