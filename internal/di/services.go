package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/clients/yahoo"
	"github.com/niksan004/Stonks/internal/config"
	"github.com/niksan004/Stonks/internal/modules/backtest"
	"github.com/niksan004/Stonks/internal/modules/session"
	"github.com/niksan004/Stonks/internal/modules/simulation"
	"github.com/niksan004/Stonks/internal/modules/universe"
)

// InitializeServices creates the price provider chain and both engines.
// A client already set on the container is kept, which lets tests swap
// the network out.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.HistoryDB == nil {
		return fmt.Errorf("container has no history database")
	}

	if container.YahooClient == nil {
		client, err := newYahooClient(cfg, log)
		if err != nil {
			return err
		}
		container.YahooClient = client
	}

	container.HistoryRepo = universe.NewHistoryDB(container.HistoryDB.Conn(), log)
	container.PriceValidator = universe.NewPriceValidator(cfg.StrictValidation, log)
	container.Resolver = universe.NewResolver(
		container.HistoryRepo,
		container.YahooClient,
		container.PriceValidator,
		universe.ResolverConfig{FetchRange: cfg.FetchRange, MaxAge: cfg.CacheMaxAge},
		log,
	)
	container.HistoryService = universe.NewHistoryService(container.Resolver)
	container.Sessions = session.NewStore(container.Resolver, log)

	container.Backtester = backtest.NewEngine(backtest.Options{
		IncludeDividends: cfg.IncludeDividends,
	}, log)
	container.Simulator = simulation.NewEngine(simulation.Options{
		Seed:    cfg.DefaultSeed,
		Workers: cfg.Workers,
	}, log)

	log.Debug().
		Str("provider", cfg.ProviderBackend).
		Bool("strict_validation", cfg.StrictValidation).
		Msg("Services initialized")

	return nil
}

func newYahooClient(cfg *config.Config, log zerolog.Logger) (yahoo.HistoryClient, error) {
	switch cfg.ProviderBackend {
	case config.BackendChart, "":
		return yahoo.NewChartClient(yahoo.ChartConfig{
			BaseURL: cfg.ChartBaseURL,
			Timeout: cfg.HTTPTimeout,
		}, log), nil
	case config.BackendNative:
		return yahoo.NewNativeClient(log), nil
	default:
		return nil, fmt.Errorf("unknown provider backend %q", cfg.ProviderBackend)
	}
}
