package yahoo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/niksan004/Stonks/internal/domain"
)

// NativeClient fetches history through the go-yfinance library.
// The library exposes no dividend events, so Dividend is always zero.
type NativeClient struct {
	log zerolog.Logger
}

// NewNativeClient creates a new native Yahoo Finance client
func NewNativeClient(log zerolog.Logger) *NativeClient {
	return &NativeClient{
		log: log.With().Str("client", "yahoo-native").Logger(),
	}
}

// FetchHistory fetches daily bars for symbol. The library call cannot be
// cancelled, so ctx is only checked before starting.
func (c *NativeClient) FetchHistory(ctx context.Context, symbol, rangeSpec string) (*History, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbol = domain.NormalizeSymbol(symbol)
	if rangeSpec == "" {
		rangeSpec = "max"
	}

	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create ticker: %v", ErrUpstream, err)
	}
	defer t.Close()

	bars, err := t.History(models.HistoryParams{
		Period:     rangeSpec,
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return nil, &domain.ResolutionError{Symbol: symbol, Err: err}
	}

	history := &History{Symbol: symbol, DisplayName: symbol}
	if info, err := t.Info(); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to get quote info, using symbol as name")
	} else {
		history.DisplayName = displayName(symbol, info.ShortName, info.LongName)
	}

	history.Bars = make([]domain.Bar, 0, len(bars))
	for _, bar := range bars {
		if bar.Open == 0 && bar.High == 0 && bar.Low == 0 && bar.Close == 0 {
			continue
		}
		history.Bars = append(history.Bars, domain.Bar{
			Date:   domain.DateOf(bar.Date),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: int64(bar.Volume),
		})
	}

	c.log.Info().
		Str("symbol", symbol).
		Str("range", rangeSpec).
		Int("count", len(history.Bars)).
		Msg("Fetched historical prices")

	return history, nil
}
