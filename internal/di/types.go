// Package di provides dependency injection type definitions.
package di

import (
	"github.com/niksan004/Stonks/internal/clients/yahoo"
	"github.com/niksan004/Stonks/internal/database"
	"github.com/niksan004/Stonks/internal/modules/backtest"
	"github.com/niksan004/Stonks/internal/modules/session"
	"github.com/niksan004/Stonks/internal/modules/simulation"
	"github.com/niksan004/Stonks/internal/modules/universe"
	"github.com/niksan004/Stonks/internal/scheduler"
)

// Container holds all dependencies for the application.
//
// It is created by Wire() and shared by the HTTP server and the CLI.
type Container struct {
	HistoryDB *database.DB

	// Clients
	YahooClient yahoo.HistoryClient

	// Repositories
	HistoryRepo *universe.HistoryDB

	// Services
	PriceValidator *universe.PriceValidator
	Resolver       *universe.Resolver
	HistoryService *universe.HistoryService
	Sessions       *session.Store
	Backtester     *backtest.Engine
	Simulator      *simulation.Engine

	// Background jobs; nil until RegisterJobs runs
	Scheduler *scheduler.Scheduler
	Jobs      *JobInstances
}

// JobInstances holds references to the registered jobs for manual triggering.
// A nil field means the job's schedule is disabled.
type JobInstances struct {
	RefreshPrices  *scheduler.RefreshPricesJob
	CheckDatabase  *scheduler.CheckDatabaseJob
	ExpireSessions *scheduler.ExpireSessionsJob
}

// Close releases the container's resources. Safe to call on a partially
// initialized container.
func (c *Container) Close() error {
	if c == nil || c.HistoryDB == nil {
		return nil
	}
	return c.HistoryDB.Close()
}
