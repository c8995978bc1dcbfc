package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/config"
	"github.com/niksan004/Stonks/internal/database"
)

// InitializeDatabases opens the price cache and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// history.db - cached daily bars and asset names
	historyDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileCache, // Everything here can be re-fetched
		Name:    "history",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}
	container.HistoryDB = historyDB

	if err := historyDB.Migrate(); err != nil {
		historyDB.Close()
		return nil, fmt.Errorf("failed to apply schema to %s: %w", historyDB.Name(), err)
	}

	log.Info().Str("path", historyDB.Path()).Msg("Price cache initialized")

	return container, nil
}
