package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/domain"
)

// PriceRefresher is the part of the resolver the refresh job needs.
type PriceRefresher interface {
	CachedSymbols(ctx context.Context) ([]string, error)
	Refresh(ctx context.Context, symbol string) (domain.Resolution, error)
}

// RefreshPricesJob re-fetches the history of every cached symbol.
type RefreshPricesJob struct {
	log       zerolog.Logger
	refresher PriceRefresher
	timeout   time.Duration
}

// NewRefreshPricesJob creates a new RefreshPricesJob. timeout bounds each
// symbol's fetch; zero means one minute.
func NewRefreshPricesJob(refresher PriceRefresher, timeout time.Duration) *RefreshPricesJob {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &RefreshPricesJob{
		log:       zerolog.Nop(),
		refresher: refresher,
		timeout:   timeout,
	}
}

// SetLogger sets the logger for the job
func (j *RefreshPricesJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *RefreshPricesJob) Name() string {
	return "refresh_prices"
}

// Run executes the refresh prices job. A failing symbol is logged and
// skipped; the job fails only when every symbol failed.
func (j *RefreshPricesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	symbols, err := j.refresher.CachedSymbols(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("list cached symbols: %w", err)
	}

	failed := 0
	for _, symbol := range symbols {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		res, err := j.refresher.Refresh(ctx, symbol)
		cancel()
		if err != nil {
			failed++
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to refresh prices")
			continue
		}
		j.log.Debug().Str("symbol", symbol).Int("bars", res.Series.Len()).Msg("Refreshed prices")
	}

	j.log.Info().
		Int("symbols", len(symbols)).
		Int("failed", failed).
		Msg("Price refresh completed")

	if len(symbols) > 0 && failed == len(symbols) {
		return fmt.Errorf("all %d symbols failed to refresh", failed)
	}
	return nil
}
