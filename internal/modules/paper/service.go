package paper

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantlab/stockpulse/internal/domain"
)

// DefaultAccountID identifies the single built-in paper account
const DefaultAccountID = "default"

// Service coordinates the in-memory account with the trade ledger and
// snapshot persistence. The account itself serializes concurrent
// submissions; the service only adds order IDs and durability.
type Service struct {
	account   *Account
	accountID string
	trades    *TradeRepository
	snapshots *SnapshotRepository
	log       zerolog.Logger
}

// NewService restores the account from its latest snapshot, or creates a
// fresh one with the given starting cash when no snapshot exists.
func NewService(ctx context.Context, startingCash float64, trades *TradeRepository, snapshots *SnapshotRepository, log zerolog.Logger) (*Service, error) {
	serviceLog := log.With().Str("component", "paper_service").Logger()

	if err := trades.Init(ctx); err != nil {
		return nil, err
	}
	if err := snapshots.Init(ctx); err != nil {
		return nil, err
	}

	var account *Account
	snapshot, found, err := snapshots.Load(ctx, DefaultAccountID)
	if err != nil {
		return nil, err
	}
	if found {
		account, err = RestoreAccount(snapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to restore paper account: %w", err)
		}
		serviceLog.Info().
			Float64("cash", snapshot.Cash).
			Int("positions", len(snapshot.Positions)).
			Int("trades", len(snapshot.Trades)).
			Msg("Paper account restored from snapshot")
	} else {
		account, err = NewAccount(startingCash)
		if err != nil {
			return nil, err
		}
		serviceLog.Info().Float64("starting_cash", startingCash).Msg("Paper account created")
	}

	return &Service{
		account:   account,
		accountID: DefaultAccountID,
		trades:    trades,
		snapshots: snapshots,
		log:       serviceLog,
	}, nil
}

// SubmitTrade executes a trade against the account, then persists the trade
// and a fresh account snapshot. The trade is already committed to the
// in-memory account when persistence runs; a persistence failure is returned
// so the caller knows durability was not achieved.
func (s *Service) SubmitTrade(ctx context.Context, req TradeRequest) (domain.Trade, error) {
	req.OrderID = uuid.New().String()

	trade, err := s.account.Execute(req)
	if err != nil {
		return domain.Trade{}, err
	}

	s.log.Info().
		Str("order_id", trade.OrderID).
		Str("symbol", trade.Symbol).
		Str("action", string(trade.Action)).
		Int("shares", trade.Shares).
		Float64("price", trade.Price).
		Float64("cash_after", trade.CashAfter).
		Msg("Paper trade executed")

	if err := s.trades.Create(ctx, trade); err != nil {
		return trade, fmt.Errorf("trade executed but not persisted: %w", err)
	}
	if err := s.snapshots.Save(ctx, s.accountID, s.account.Snapshot()); err != nil {
		return trade, fmt.Errorf("trade executed but snapshot not persisted: %w", err)
	}

	return trade, nil
}

// GetSummary values the account at the supplied current prices
func (s *Service) GetSummary(currentPrices map[string]float64) Summary {
	return s.account.Summarize(currentPrices)
}

// GetHistory returns recent trades from the ledger, newest first
func (s *Service) GetHistory(ctx context.Context, limit int) ([]domain.Trade, error) {
	return s.trades.GetHistory(ctx, limit)
}

// GetHistoryBySymbol returns recent trades for one symbol, newest first
func (s *Service) GetHistoryBySymbol(ctx context.Context, symbol string, limit int) ([]domain.Trade, error) {
	return s.trades.GetBySymbol(ctx, symbol, limit)
}
