package paper

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantlab/stockpulse/internal/domain"
)

// TradeRepository persists executed paper trades in the ledger database.
// The trade log is append-only: rows are inserted and read, never updated.
type TradeRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTradeRepository creates a repository for the paper trade ledger
func NewTradeRepository(db *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		db:  db,
		log: log.With().Str("component", "paper_trade_repository").Logger(),
	}
}

// Init creates the trades table if it does not exist
func (r *TradeRepository) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS paper_trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT UNIQUE NOT NULL,
			symbol TEXT NOT NULL,
			action TEXT NOT NULL CHECK(action IN ('BUY', 'SELL')),
			shares INTEGER NOT NULL CHECK(shares > 0),
			price REAL NOT NULL CHECK(price > 0),
			cash_after REAL NOT NULL CHECK(cash_after >= 0),
			pnl REAL NOT NULL DEFAULT 0,
			executed_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);
		CREATE INDEX IF NOT EXISTS idx_paper_trades_symbol ON paper_trades(symbol);
		CREATE INDEX IF NOT EXISTS idx_paper_trades_executed_at ON paper_trades(executed_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create paper_trades table: %w", err)
	}
	return nil
}

// Create inserts one executed trade
func (r *TradeRepository) Create(ctx context.Context, trade domain.Trade) error {
	if trade.OrderID == "" {
		return domain.ValidationError{Field: "order_id", Message: "must not be empty"}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO paper_trades (order_id, symbol, action, shares, price, cash_after, pnl, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, trade.OrderID, trade.Symbol, string(trade.Action), trade.Shares,
		trade.Price, trade.CashAfter, trade.PnL, trade.Timestamp.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert trade %s: %w", trade.OrderID, err)
	}

	r.log.Debug().
		Str("order_id", trade.OrderID).
		Str("symbol", trade.Symbol).
		Str("action", string(trade.Action)).
		Int("shares", trade.Shares).
		Float64("price", trade.Price).
		Msg("Trade recorded")

	return nil
}

// GetHistory returns the most recent trades, newest first
func (r *TradeRepository) GetHistory(ctx context.Context, limit int) ([]domain.Trade, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, symbol, action, shares, price, cash_after, pnl, executed_at
		FROM paper_trades
		ORDER BY executed_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade history: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetBySymbol returns the most recent trades for one symbol, newest first
func (r *TradeRepository) GetBySymbol(ctx context.Context, symbol string, limit int) ([]domain.Trade, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, symbol, action, shares, price, cash_after, pnl, executed_at
		FROM paper_trades
		WHERE symbol = ?
		ORDER BY executed_at DESC, id DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for %s: %w", symbol, err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// CountSince returns how many trades executed at or after the given time
func (r *TradeRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM paper_trades WHERE executed_at >= ?
	`, since.Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

func scanTrades(rows *sql.Rows) ([]domain.Trade, error) {
	trades := []domain.Trade{}
	for rows.Next() {
		var trade domain.Trade
		var action string
		var executedAt int64
		if err := rows.Scan(&trade.OrderID, &trade.Symbol, &action, &trade.Shares,
			&trade.Price, &trade.CashAfter, &trade.PnL, &executedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		trade.Action = domain.TradeAction(action)
		trade.Timestamp = time.Unix(executedAt, 0).UTC()
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trade rows: %w", err)
	}
	return trades, nil
}
