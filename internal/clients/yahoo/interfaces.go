// Package yahoo fetches daily price history from Yahoo Finance.
package yahoo

import (
	"context"
	"errors"

	"github.com/niksan004/Stonks/internal/domain"
)

// ErrUpstream marks failures of the Yahoo service itself (transport errors,
// 5xx responses, unparseable bodies) as opposed to unknown symbols.
var ErrUpstream = errors.New("yahoo finance unavailable")

// History is the full daily history of one symbol as returned by Yahoo.
type History struct {
	Symbol      string
	DisplayName string
	Currency    string
	Bars        []domain.Bar
}

// HistoryClient fetches raw daily history. rangeSpec is a Yahoo range such
// as "1y", "5y" or "max".
type HistoryClient interface {
	FetchHistory(ctx context.Context, symbol, rangeSpec string) (*History, error)
}

// displayName picks the first non-empty name, falling back to the symbol.
func displayName(symbol string, names ...string) string {
	for _, n := range names {
		if n != "" {
			return n
		}
	}
	return symbol
}
