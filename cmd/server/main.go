// Package main is the entry point for the Stonks HTTP service.
// It serves portfolio backtests and Monte Carlo simulations over live
// Yahoo Finance history cached in a local SQLite database.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/niksan004/Stonks/internal/config"
	"github.com/niksan004/Stonks/internal/di"
	historicalhandlers "github.com/niksan004/Stonks/internal/modules/historical/handlers"
	sessionhandlers "github.com/niksan004/Stonks/internal/modules/session/handlers"
	"github.com/niksan004/Stonks/internal/server"
	"github.com/niksan004/Stonks/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("provider", cfg.ProviderBackend).
		Msg("Starting Stonks")

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:       log,
		HistoryDB: container.HistoryDB,
		Config:    cfg,
		Sessions:  container.Sessions,
		Jobs:      container.Scheduler,
		SessionHandlers: sessionhandlers.NewHandler(
			container.Sessions,
			container.Backtester,
			container.Simulator,
			sessionhandlers.Limits{
				MaxPeriodDays:  cfg.MaxHorizonDays,
				MaxSimulations: cfg.MaxSimulations,
			},
			log,
		),
		HistoricalHandlers: historicalhandlers.NewHandler(
			container.HistoryService,
			container.Resolver,
			log,
		),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	container.Scheduler.Start()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
