// Package portfolio holds the user-assembled set of holdings and periodic
// purchase plans that the engines evaluate.
package portfolio

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/domain"
)

// PlanEntry pairs an asset with its periodic purchase plan.
type PlanEntry struct {
	Asset domain.Asset
	Plan  domain.PeriodicPlan
}

// Portfolio maps assets to static share counts and to optional periodic
// purchase plans. Both maps are keyed by domain.AssetKey and iterate in
// insertion order.
//
// A Portfolio is not safe for concurrent mutation; callers serialize access.
type Portfolio struct {
	provider domain.PriceDataProvider
	log      zerolog.Logger

	assets map[domain.AssetKey]domain.Asset

	holdingOrder []domain.AssetKey
	shares       map[domain.AssetKey]float64

	planOrder []domain.AssetKey
	plans     map[domain.AssetKey]domain.PeriodicPlan
}

// New creates an empty portfolio resolving symbols through provider.
func New(provider domain.PriceDataProvider, log zerolog.Logger) *Portfolio {
	return &Portfolio{
		provider: provider,
		log:      log.With().Str("component", "portfolio").Logger(),
		assets:   make(map[domain.AssetKey]domain.Asset),
		shares:   make(map[domain.AssetKey]float64),
		plans:    make(map[domain.AssetKey]domain.PeriodicPlan),
	}
}

// AddAsset resolves symbol and adds shares to its holding. Adding an asset
// that resolves to an existing display name accumulates shares. On any
// error the portfolio is left unchanged.
func (p *Portfolio) AddAsset(ctx context.Context, symbol string, shares float64) (domain.Asset, error) {
	if !(shares > 0) || math.IsInf(shares, 0) {
		return domain.Asset{}, fmt.Errorf("%w: shares must be a positive number, got %v", domain.ErrInvalidArgument, shares)
	}

	res, err := p.provider.Resolve(ctx, symbol)
	if err != nil {
		return domain.Asset{}, err
	}
	if res.Symbol == "" {
		res.Symbol = symbol
	}
	asset, err := domain.NewAsset(res.Symbol, res.DisplayName, res.Series)
	if err != nil {
		return domain.Asset{}, err
	}

	key := asset.Key()
	if _, held := p.shares[key]; held {
		p.shares[key] += shares
	} else {
		p.holdingOrder = append(p.holdingOrder, key)
		p.shares[key] = shares
	}
	p.remember(asset)

	p.log.Debug().
		Str("symbol", asset.Symbol).
		Str("asset", string(key)).
		Float64("added", shares).
		Float64("total", p.shares[key]).
		Msg("Added asset")

	return p.assets[key], nil
}

// ResolveAsset returns the known asset for symbol, resolving it through the
// provider when the portfolio has not seen it yet. The portfolio is not
// modified.
func (p *Portfolio) ResolveAsset(ctx context.Context, symbol string) (domain.Asset, error) {
	if a, ok := p.FindBySymbol(symbol); ok {
		return a, nil
	}
	res, err := p.provider.Resolve(ctx, symbol)
	if err != nil {
		return domain.Asset{}, err
	}
	if res.Symbol == "" {
		res.Symbol = symbol
	}
	if a, ok := p.assets[domain.KeyFor(res.DisplayName)]; ok {
		return a, nil
	}
	return domain.NewAsset(res.Symbol, res.DisplayName, res.Series)
}

// RemoveAsset drops the static holding for key. Any periodic plan stays.
func (p *Portfolio) RemoveAsset(key domain.AssetKey) error {
	if _, ok := p.shares[key]; !ok {
		return fmt.Errorf("holding %q: %w", key, domain.ErrNotFound)
	}
	delete(p.shares, key)
	p.holdingOrder = without(p.holdingOrder, key)
	p.forgetIfUnused(key)
	return nil
}

// AddPeriodicPlan sets, or overwrites, the plan for asset. It does not
// require a static holding of the asset.
func (p *Portfolio) AddPeriodicPlan(asset domain.Asset, periodDays int, sharesPerPeriod float64) (domain.PeriodicPlan, error) {
	plan, err := domain.NewPeriodicPlan(periodDays, sharesPerPeriod)
	if err != nil {
		return domain.PeriodicPlan{}, err
	}

	key := asset.Key()
	if _, ok := p.plans[key]; !ok {
		p.planOrder = append(p.planOrder, key)
	}
	p.plans[key] = plan
	p.remember(asset)

	p.log.Debug().
		Str("asset", string(key)).
		Int("period_days", plan.PeriodDays).
		Float64("shares_per_period", plan.SharesPerPeriod).
		Msg("Set periodic plan")

	return plan, nil
}

// RemovePeriodicPlan drops the plan for key.
func (p *Portfolio) RemovePeriodicPlan(key domain.AssetKey) error {
	if _, ok := p.plans[key]; !ok {
		return fmt.Errorf("periodic plan %q: %w", key, domain.ErrNotFound)
	}
	delete(p.plans, key)
	p.planOrder = without(p.planOrder, key)
	p.forgetIfUnused(key)
	return nil
}

// PeriodicPlan returns the plan for key, if any.
func (p *Portfolio) PeriodicPlan(key domain.AssetKey) (domain.PeriodicPlan, bool) {
	plan, ok := p.plans[key]
	return plan, ok
}

// Asset returns a known asset, held or planned.
func (p *Portfolio) Asset(key domain.AssetKey) (domain.Asset, bool) {
	a, ok := p.assets[key]
	return a, ok
}

// FindBySymbol returns the known asset with the given ticker symbol.
func (p *Portfolio) FindBySymbol(symbol string) (domain.Asset, bool) {
	symbol = domain.NormalizeSymbol(symbol)
	for _, a := range p.assets {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return domain.Asset{}, false
}

// Holdings returns the static holdings in insertion order.
func (p *Portfolio) Holdings() []domain.Holding {
	out := make([]domain.Holding, 0, len(p.holdingOrder))
	for _, key := range p.holdingOrder {
		out = append(out, domain.Holding{Asset: p.assets[key], Shares: p.shares[key]})
	}
	return out
}

// Assets returns the held assets in insertion order.
func (p *Portfolio) Assets() []domain.Asset {
	out := make([]domain.Asset, 0, len(p.holdingOrder))
	for _, key := range p.holdingOrder {
		out = append(out, p.assets[key])
	}
	return out
}

// Shares returns the held share counts, aligned with Assets.
func (p *Portfolio) Shares() []float64 {
	out := make([]float64, 0, len(p.holdingOrder))
	for _, key := range p.holdingOrder {
		out = append(out, p.shares[key])
	}
	return out
}

// Plans returns the periodic plans in insertion order.
func (p *Portfolio) Plans() []PlanEntry {
	out := make([]PlanEntry, 0, len(p.planOrder))
	for _, key := range p.planOrder {
		out = append(out, PlanEntry{Asset: p.assets[key], Plan: p.plans[key]})
	}
	return out
}

// Len returns the number of static holdings.
func (p *Portfolio) Len() int { return len(p.holdingOrder) }

// InitialValue is the sum over static holdings of shares times latest close.
func (p *Portfolio) InitialValue() (float64, error) {
	total := 0.0
	for _, key := range p.holdingOrder {
		a := p.assets[key]
		closePrice, err := a.Series.LatestClose()
		if err != nil {
			return 0, fmt.Errorf("initial value of %s: %w", a.Symbol, err)
		}
		total += p.shares[key] * closePrice
	}
	return total, nil
}

func (p *Portfolio) remember(a domain.Asset) {
	if _, ok := p.assets[a.Key()]; !ok {
		p.assets[a.Key()] = a
	}
}

func (p *Portfolio) forgetIfUnused(key domain.AssetKey) {
	_, held := p.shares[key]
	_, planned := p.plans[key]
	if !held && !planned {
		delete(p.assets, key)
	}
}

func without(keys []domain.AssetKey, key domain.AssetKey) []domain.AssetKey {
	out := keys[:0]
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}

var _ domain.PortfolioView = (*Portfolio)(nil)
