package universe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/clients/yahoo"
	"github.com/niksan004/Stonks/internal/domain"
)

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// FetchRange is the Yahoo range requested on a cache miss ("max" by default).
	FetchRange string
	// MaxAge makes cached entries older than this count as misses. Zero
	// means cached history never expires on its own.
	MaxAge time.Duration
}

// Resolver is the price data provider: cache first, Yahoo on a miss.
type Resolver struct {
	repo      *HistoryDB
	client    yahoo.HistoryClient
	validator *PriceValidator
	cfg       ResolverConfig
	now       func() time.Time
	log       zerolog.Logger

	// locks serializes fetches of the same symbol.
	locks sync.Map
}

// NewResolver creates a cache-backed price data provider.
func NewResolver(repo *HistoryDB, client yahoo.HistoryClient, validator *PriceValidator, cfg ResolverConfig, log zerolog.Logger) *Resolver {
	if cfg.FetchRange == "" {
		cfg.FetchRange = "max"
	}
	return &Resolver{
		repo:      repo,
		client:    client,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
		log:       log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve implements domain.PriceDataProvider.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (domain.Resolution, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" || strings.ContainsAny(symbol, " /?#") {
		return domain.Resolution{}, &domain.ResolutionError{Symbol: symbol, Err: domain.ErrInvalidArgument}
	}

	unlock := r.lock(symbol)
	defer unlock()

	if res, ok := r.fromCache(ctx, symbol); ok {
		return res, nil
	}
	return r.fetch(ctx, symbol)
}

// Refresh re-fetches symbol regardless of the cache.
func (r *Resolver) Refresh(ctx context.Context, symbol string) (domain.Resolution, error) {
	symbol = domain.NormalizeSymbol(symbol)
	unlock := r.lock(symbol)
	defer unlock()
	return r.fetch(ctx, symbol)
}

// CachedSymbols lists every symbol currently in the cache.
func (r *Resolver) CachedSymbols(ctx context.Context) ([]string, error) {
	return r.repo.ListSymbols(ctx)
}

func (r *Resolver) fromCache(ctx context.Context, symbol string) (domain.Resolution, bool) {
	asset, err := r.repo.GetAsset(ctx, symbol)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.log.Warn().Err(err).Str("symbol", symbol).Msg("Cache lookup failed, fetching")
		}
		return domain.Resolution{}, false
	}
	if r.cfg.MaxAge > 0 && r.now().Sub(asset.FetchedAt) > r.cfg.MaxAge {
		r.log.Debug().Str("symbol", symbol).Time("fetched_at", asset.FetchedAt).Msg("Cached history is stale")
		return domain.Resolution{}, false
	}

	series, err := r.repo.GetSeries(ctx, symbol)
	if err != nil || series.Empty() {
		if err != nil {
			r.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to load cached series, fetching")
		}
		return domain.Resolution{}, false
	}

	r.log.Debug().Str("symbol", symbol).Int("bars", series.Len()).Msg("Resolved from cache")
	return domain.Resolution{Symbol: symbol, DisplayName: asset.DisplayName, Series: series}, true
}

func (r *Resolver) fetch(ctx context.Context, symbol string) (domain.Resolution, error) {
	history, err := r.client.FetchHistory(ctx, symbol, r.cfg.FetchRange)
	if err != nil {
		var resErr *domain.ResolutionError
		if errors.As(err, &resErr) {
			return domain.Resolution{}, err
		}
		return domain.Resolution{}, &domain.ResolutionError{Symbol: symbol, Err: err}
	}

	// Sanitize logs each rejected bar itself.
	bars, _ := r.validator.Sanitize(symbol, history.Bars)
	if len(bars) == 0 {
		return domain.Resolution{}, &domain.ResolutionError{Symbol: symbol, Err: domain.ErrEmptySeries}
	}

	series, err := domain.NewPriceSeries(bars)
	if err != nil {
		return domain.Resolution{}, &domain.ResolutionError{Symbol: symbol, Err: err}
	}

	cached := CachedAsset{
		Symbol:      symbol,
		DisplayName: displayNameOr(history.DisplayName, symbol),
		Currency:    history.Currency,
		FetchedAt:   r.now(),
	}
	// The cache is an optimization; a write failure still returns fresh data.
	if err := r.repo.SaveHistory(ctx, cached, bars); err != nil {
		r.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to cache history")
	}

	return domain.Resolution{Symbol: symbol, DisplayName: cached.DisplayName, Series: series}, nil
}

func (r *Resolver) lock(symbol string) func() {
	v, _ := r.locks.LoadOrStore(symbol, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func displayNameOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

var _ domain.PriceDataProvider = (*Resolver)(nil)
