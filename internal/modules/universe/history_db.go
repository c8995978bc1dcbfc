package universe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/database"
	"github.com/niksan004/Stonks/internal/domain"
)

// CachedAsset is the metadata row stored for each cached symbol.
type CachedAsset struct {
	Symbol      string    `json:"symbol"`
	DisplayName string    `json:"display_name"`
	Currency    string    `json:"currency"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// HistoryDB is the price cache repository over the history database.
type HistoryDB struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryDB creates a new history database accessor
func NewHistoryDB(db *sql.DB, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		db:  db,
		log: log.With().Str("component", "history_db").Logger(),
	}
}

// GetAsset returns the cached metadata for symbol, or domain.ErrNotFound.
func (h *HistoryDB) GetAsset(ctx context.Context, symbol string) (*CachedAsset, error) {
	symbol = domain.NormalizeSymbol(symbol)

	var a CachedAsset
	var fetchedAt int64
	err := h.db.QueryRowContext(ctx, `
		SELECT symbol, display_name, currency, fetched_at
		FROM assets
		WHERE symbol = ?
	`, symbol).Scan(&a.Symbol, &a.DisplayName, &a.Currency, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("asset %s: %w", symbol, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query asset %s: %w", symbol, err)
	}

	a.FetchedAt = time.Unix(fetchedAt, 0).UTC()
	return &a, nil
}

// GetSeries loads every cached bar of symbol in date order. A symbol with
// no rows yields an empty series, not an error.
func (h *HistoryDB) GetSeries(ctx context.Context, symbol string) (domain.PriceSeries, error) {
	symbol = domain.NormalizeSymbol(symbol)

	rows, err := h.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume, dividend
		FROM daily_prices
		WHERE symbol = ?
		ORDER BY date ASC
	`, symbol)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var b domain.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Dividend); err != nil {
			return domain.PriceSeries{}, fmt.Errorf("failed to scan daily price: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("error iterating daily prices: %w", err)
	}

	return domain.NewPriceSeries(bars)
}

// SaveHistory upserts the asset row and its bars in a single transaction.
// Existing bars on other dates are kept.
func (h *HistoryDB) SaveHistory(ctx context.Context, asset CachedAsset, bars []domain.Bar) error {
	asset.Symbol = domain.NormalizeSymbol(asset.Symbol)
	if asset.FetchedAt.IsZero() {
		asset.FetchedAt = time.Now()
	}

	err := database.WithTransaction(ctx, h.db, func(tx *sql.Tx) error {
		// ON CONFLICT rather than INSERT OR REPLACE: a replace deletes the row
		// and would cascade to daily_prices.
		_, err := tx.ExecContext(ctx, `
			INSERT INTO assets (symbol, display_name, currency, fetched_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(symbol) DO UPDATE SET
				display_name = excluded.display_name,
				currency = excluded.currency,
				fetched_at = excluded.fetched_at
		`, asset.Symbol, asset.DisplayName, asset.Currency, asset.FetchedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to upsert asset: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO daily_prices
			(symbol, date, open, high, low, close, volume, dividend)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, b := range bars {
			_, err := stmt.ExecContext(ctx, asset.Symbol, b.Date.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume, b.Dividend)
			if err != nil {
				return fmt.Errorf("failed to insert daily price for %s: %w", b.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	h.log.Info().
		Str("symbol", asset.Symbol).
		Int("count", len(bars)).
		Msg("Saved historical prices")

	return nil
}

// ListSymbols returns every cached symbol in alphabetical order.
func (h *HistoryDB) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT symbol FROM assets ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// DeleteAsset removes a symbol and, through the foreign key, its bars.
func (h *HistoryDB) DeleteAsset(ctx context.Context, symbol string) error {
	symbol = domain.NormalizeSymbol(symbol)

	res, err := h.db.ExecContext(ctx, `DELETE FROM assets WHERE symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", symbol, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("asset %s: %w", symbol, domain.ErrNotFound)
	}
	return nil
}

// LastFetched returns when symbol was last written, or domain.ErrNotFound.
func (h *HistoryDB) LastFetched(ctx context.Context, symbol string) (time.Time, error) {
	a, err := h.GetAsset(ctx, symbol)
	if err != nil {
		return time.Time{}, err
	}
	return a.FetchedAt, nil
}
