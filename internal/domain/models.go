// Package domain provides the core portfolio simulation types.
package domain

import (
	"strings"
)

// AssetKey identifies an asset inside a portfolio. Two resolutions that
// produce the same display name share a key, so buying "GOOG" and "GOOGL"
// under one company name collapses into one holding.
type AssetKey string

// KeyFor derives the key for a display name.
func KeyFor(displayName string) AssetKey {
	return AssetKey(strings.TrimSpace(displayName))
}

// Asset is a resolved tradable instrument with its full price history.
type Asset struct {
	Symbol      string
	DisplayName string
	Series      PriceSeries
}

// NewAsset builds an Asset. An empty series is a resolution failure.
func NewAsset(symbol, displayName string, series PriceSeries) (Asset, error) {
	symbol = NormalizeSymbol(symbol)
	if series.Empty() {
		return Asset{}, &ResolutionError{Symbol: symbol, Err: ErrEmptySeries}
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = symbol
	}
	return Asset{Symbol: symbol, DisplayName: displayName, Series: series}, nil
}

// Key returns the identity of the asset.
func (a Asset) Key() AssetKey { return KeyFor(a.DisplayName) }

func (a Asset) String() string {
	if a.DisplayName == a.Symbol {
		return a.Symbol
	}
	return a.DisplayName + " (" + a.Symbol + ")"
}

// NormalizeSymbol trims and uppercases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// PeriodicPlan buys SharesPerPeriod shares every PeriodDays calendar days.
type PeriodicPlan struct {
	PeriodDays      int     `json:"period_days"`
	SharesPerPeriod float64 `json:"shares_per_period"`
}

// NewPeriodicPlan validates and returns a plan.
func NewPeriodicPlan(periodDays int, sharesPerPeriod float64) (PeriodicPlan, error) {
	if periodDays <= 0 || !(sharesPerPeriod > 0) {
		return PeriodicPlan{}, &InvalidPlanError{PeriodDays: periodDays, SharesPerPeriod: sharesPerPeriod}
	}
	return PeriodicPlan{PeriodDays: periodDays, SharesPerPeriod: sharesPerPeriod}, nil
}

// Holding pairs an asset with a static share count.
type Holding struct {
	Asset  Asset
	Shares float64
}
