package paper

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/quantlab/stockpulse/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	return db
}

func testTrade(orderID, symbol string, action domain.TradeAction, executedAt time.Time) domain.Trade {
	return domain.Trade{
		Timestamp: executedAt,
		Symbol:    symbol,
		Action:    action,
		Price:     100,
		Shares:    5,
		CashAfter: 9500,
		OrderID:   orderID,
	}
}

func TestTradeRepository_CreateAndGetHistory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTradeRepository(db, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	base := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, testTrade("order-1", "ACME", domain.ActionBuy, base)))
	require.NoError(t, repo.Create(ctx, testTrade("order-2", "ZETA", domain.ActionBuy, base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, testTrade("order-3", "ACME", domain.ActionSell, base.Add(2*time.Minute))))

	history, err := repo.GetHistory(ctx, 10)
	require.NoError(t, err)

	require.Len(t, history, 3)
	assert.Equal(t, "order-3", history[0].OrderID)
	assert.Equal(t, "order-1", history[2].OrderID)
	assert.Equal(t, domain.ActionSell, history[0].Action)
	assert.Equal(t, 5, history[0].Shares)
}

func TestTradeRepository_GetHistoryRespectsLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTradeRepository(db, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	base := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		trade := testTrade("order-"+string(rune('a'+i)), "ACME", domain.ActionBuy, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, trade))
	}

	history, err := repo.GetHistory(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestTradeRepository_GetBySymbol(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTradeRepository(db, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	base := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, testTrade("order-1", "ACME", domain.ActionBuy, base)))
	require.NoError(t, repo.Create(ctx, testTrade("order-2", "ZETA", domain.ActionBuy, base.Add(time.Minute))))

	trades, err := repo.GetBySymbol(ctx, "ACME", 10)
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, "order-1", trades[0].OrderID)
}

func TestTradeRepository_DuplicateOrderIDRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTradeRepository(db, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	base := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, testTrade("order-1", "ACME", domain.ActionBuy, base)))

	err := repo.Create(ctx, testTrade("order-1", "ACME", domain.ActionSell, base.Add(time.Minute)))
	assert.Error(t, err)
}

func TestTradeRepository_EmptyOrderIDRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTradeRepository(db, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	err := repo.Create(ctx, testTrade("", "ACME", domain.ActionBuy, time.Now()))

	var valErr domain.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "order_id", valErr.Field)
}

func TestTradeRepository_CountSince(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTradeRepository(db, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	base := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, testTrade("order-1", "ACME", domain.ActionBuy, base)))
	require.NoError(t, repo.Create(ctx, testTrade("order-2", "ACME", domain.ActionSell, base.Add(time.Hour))))

	count, err := repo.CountSince(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSnapshotRepository_SaveAndLoad(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepository(db, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	snapshot := Snapshot{
		Cash:            8500,
		StartingCapital: 10000,
		RealizedPnL:     120.5,
		Positions: map[string]Position{
			"ACME": {Shares: 10, AvgCost: 150},
		},
	}
	require.NoError(t, repo.Save(ctx, "default", snapshot))

	loaded, found, err := repo.Load(ctx, "default")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, snapshot.Cash, loaded.Cash)
	assert.Equal(t, snapshot.StartingCapital, loaded.StartingCapital)
	assert.Equal(t, snapshot.RealizedPnL, loaded.RealizedPnL)
	assert.Equal(t, snapshot.Positions, loaded.Positions)
}

func TestSnapshotRepository_SaveOverwritesPrevious(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepository(db, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	require.NoError(t, repo.Save(ctx, "default", Snapshot{Cash: 10000, StartingCapital: 10000}))
	require.NoError(t, repo.Save(ctx, "default", Snapshot{Cash: 9000, StartingCapital: 10000}))

	loaded, found, err := repo.Load(ctx, "default")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 9000.0, loaded.Cash)
}

func TestSnapshotRepository_LoadMissingAccount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepository(db, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	_, found, err := repo.Load(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, found)
}
