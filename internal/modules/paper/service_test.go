package paper

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlab/stockpulse/internal/domain"
)

func setupTestService(t *testing.T) *Service {
	t.Helper()

	db := setupTestDB(t)
	trades := NewTradeRepository(db, zerolog.Nop())
	snapshots := NewSnapshotRepository(db, zerolog.Nop())

	service, err := NewService(context.Background(), 100000, trades, snapshots, zerolog.Nop())
	require.NoError(t, err)
	return service
}

func TestService_SubmitTradeAssignsOrderIDAndPersists(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	trade, err := service.SubmitTrade(ctx, TradeRequest{
		Symbol:    "ACME",
		Action:    domain.ActionBuy,
		Shares:    10,
		Price:     150,
		Timestamp: time.Date(2024, 6, 3, 15, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, trade.OrderID)
	assert.Equal(t, 98500.0, trade.CashAfter)

	history, err := service.GetHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, trade.OrderID, history[0].OrderID)
}

func TestService_RejectedTradeNotPersisted(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	_, err := service.SubmitTrade(ctx, TradeRequest{
		Symbol:    "ACME",
		Action:    domain.ActionSell,
		Shares:    1,
		Price:     100,
		Timestamp: time.Now(),
	})

	var sharesErr domain.InsufficientSharesError
	require.ErrorAs(t, err, &sharesErr)

	history, err := service.GetHistory(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestService_AccountSurvivesRestart(t *testing.T) {
	db := setupTestDB(t)
	trades := NewTradeRepository(db, zerolog.Nop())
	snapshots := NewSnapshotRepository(db, zerolog.Nop())
	ctx := context.Background()

	service, err := NewService(ctx, 100000, trades, snapshots, zerolog.Nop())
	require.NoError(t, err)

	_, err = service.SubmitTrade(ctx, TradeRequest{
		Symbol:    "ACME",
		Action:    domain.ActionBuy,
		Shares:    100,
		Price:     150,
		Timestamp: time.Date(2024, 6, 3, 15, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// A second service over the same database restores the account state
	restarted, err := NewService(ctx, 100000, trades, snapshots, zerolog.Nop())
	require.NoError(t, err)

	summary := restarted.GetSummary(nil)
	assert.Equal(t, 85000.0, summary.Cash)
	require.Len(t, summary.Positions, 1)
	assert.Equal(t, 100, summary.Positions[0].Shares)
	assert.Equal(t, 1, summary.TradeCount)
}

func TestService_GetHistoryBySymbol(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 3, 15, 30, 0, 0, time.UTC)
	for _, symbol := range []string{"ACME", "ZETA", "ACME"} {
		_, err := service.SubmitTrade(ctx, TradeRequest{
			Symbol:    symbol,
			Action:    domain.ActionBuy,
			Shares:    1,
			Price:     100,
			Timestamp: base,
		})
		require.NoError(t, err)
		base = base.Add(time.Minute)
	}

	trades, err := service.GetHistoryBySymbol(ctx, "ACME", 10)
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}
