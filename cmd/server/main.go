// StockPulse decision server.
//
// Wires the decision core (signals, risk, advisor, backtest, portfolio,
// alerts) and the paper trading ledger behind an HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantlab/stockpulse/internal/config"
	"github.com/quantlab/stockpulse/internal/database"
	"github.com/quantlab/stockpulse/internal/modules/paper"
	"github.com/quantlab/stockpulse/internal/server"
	"github.com/quantlab/stockpulse/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	appLog := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(appLog)

	appLog.Info().
		Int("port", cfg.Port).
		Str("data_dir", cfg.DataDir).
		Bool("dev_mode", cfg.DevMode).
		Msg("StockPulse starting")

	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		appLog.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	ctx := context.Background()
	tradeRepo := paper.NewTradeRepository(ledgerDB.Conn(), appLog)
	snapshotRepo := paper.NewSnapshotRepository(ledgerDB.Conn(), appLog)
	paperService, err := paper.NewService(ctx, paper.DefaultStartingCash, tradeRepo, snapshotRepo, appLog)
	if err != nil {
		appLog.Fatal().Err(err).Msg("Failed to initialize paper trading")
	}

	srv := server.New(server.Config{
		Log:          appLog,
		Config:       cfg,
		LedgerDB:     ledgerDB,
		PaperService: paperService,
		Port:         cfg.Port,
		DevMode:      cfg.DevMode,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			appLog.Fatal().Err(err).Msg("Server error")
		}
	case sig := <-stop:
		appLog.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error().Err(err).Msg("Graceful shutdown failed")
	}

	appLog.Info().Msg("StockPulse stopped")
}
