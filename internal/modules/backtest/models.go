package backtest

import (
	"fmt"

	"github.com/niksan004/Stonks/internal/domain"
)

// Options toggles optional parts of a backtest.
type Options struct {
	// IncludeDividends adds cash dividends paid inside the window to the
	// final value. Off by default.
	IncludeDividends bool `json:"include_dividends"`
}

// Purchase is one periodic buy.
type Purchase struct {
	Date   domain.Date `json:"date" msgpack:"date"`
	Price  float64     `json:"price" msgpack:"price"`
	Shares float64     `json:"shares" msgpack:"shares"`
}

// AssetResult is the contribution of one holding.
type AssetResult struct {
	Symbol         string      `json:"symbol"`
	DisplayName    string      `json:"display_name"`
	Shares         float64     `json:"shares"`
	FirstDate      domain.Date `json:"first_date"`
	LastDate       domain.Date `json:"last_date"`
	BuyingPrice    float64     `json:"buying_price"`
	FinalPrice     float64     `json:"final_price"`
	DividendIncome float64     `json:"dividend_income"`
	Purchases      []Purchase  `json:"purchases,omitempty"`
}

// Result aggregates a backtest over every static holding.
// FinalPrice already contains DividendIncome when dividends were included.
type Result struct {
	Begin          domain.Date   `json:"begin"`
	End            domain.Date   `json:"end"`
	BuyingPrice    float64       `json:"buying_price"`
	FinalPrice     float64       `json:"final_price"`
	DividendIncome float64       `json:"dividend_income"`
	Options        Options       `json:"options"`
	PerAsset       []AssetResult `json:"per_asset"`
}

// Profit is FinalPrice minus BuyingPrice.
func (r *Result) Profit() float64 {
	return r.FinalPrice - r.BuyingPrice
}

// ProfitPercent is Profit relative to BuyingPrice, in percent.
func (r *Result) ProfitPercent() (float64, error) {
	if r.BuyingPrice == 0 {
		return 0, fmt.Errorf("profit percent: %w: buying price is zero", domain.ErrDivisionByZero)
	}
	return r.Profit() / r.BuyingPrice * 100, nil
}
