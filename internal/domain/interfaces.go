package domain

import "context"

// Resolution is what a PriceDataProvider returns for a symbol.
type Resolution struct {
	Symbol      string
	DisplayName string
	Series      PriceSeries
}

// PriceDataProvider resolves a symbol to its display name and daily history.
// Implementations may serve from a cache or fetch live; callers do not care.
// An unknown symbol or an empty history must be reported as a ResolutionError.
type PriceDataProvider interface {
	Resolve(ctx context.Context, symbol string) (Resolution, error)
}

// PortfolioView is the read side of a portfolio consumed by the engines.
type PortfolioView interface {
	// Holdings returns the static holdings in a stable order.
	Holdings() []Holding
	// PeriodicPlan returns the plan for an asset, if one exists.
	PeriodicPlan(key AssetKey) (PeriodicPlan, bool)
	// InitialValue is the sum of shares times latest close.
	InitialValue() (float64, error)
}
