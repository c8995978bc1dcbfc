// Package handlers provides HTTP handlers for asset price history.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/clients/yahoo"
	"github.com/niksan004/Stonks/internal/domain"
	"github.com/niksan004/Stonks/internal/modules/universe"
	"github.com/niksan004/Stonks/internal/utils"
	"github.com/niksan004/Stonks/pkg/formulas"
)

// DefaultPeriod is used when a request names no period.
const DefaultPeriod = "1 month"

// Refresher re-fetches cached history; universe.Resolver implements it.
type Refresher interface {
	Refresh(ctx context.Context, symbol string) (domain.Resolution, error)
	CachedSymbols(ctx context.Context) ([]string, error)
}

// Handler handles historical data HTTP requests
type Handler struct {
	history   *universe.HistoryService
	refresher Refresher
	log       zerolog.Logger
}

// NewHandler creates a new historical data handler
func NewHandler(
	history *universe.HistoryService,
	refresher Refresher,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		history:   history,
		refresher: refresher,
		log:       log.With().Str("handler", "historical").Logger(),
	}
}

// HandleListAssets handles GET /api/assets
func (h *Handler) HandleListAssets(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.refresher.CachedSymbols(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list cached symbols")
		http.Error(w, "Failed to list cached symbols", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"symbols": symbols,
		"count":   len(symbols),
	}))
}

// HandleGetPeriods handles GET /api/assets/periods
func (h *Handler) HandleGetPeriods(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"periods": universe.Periods,
	}))
}

// HandleGetHistory handles GET /api/assets/{symbol}/history
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request, symbol string) {
	window, err := h.history.Window(r.Context(), symbol, periodParam(r))
	if err != nil {
		h.writeError(w, err, symbol)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"symbol":       window.Symbol,
		"display_name": window.DisplayName,
		"period":       window.Period,
		"since":        window.Since,
		"prices":       window.Bars,
		"count":        len(window.Bars),
	}))
}

// HandleGetReturns handles GET /api/assets/{symbol}/returns
func (h *Handler) HandleGetReturns(w http.ResponseWriter, r *http.Request, symbol string) {
	window, err := h.history.Window(r.Context(), symbol, periodParam(r))
	if err != nil {
		h.writeError(w, err, symbol)
		return
	}

	closes := make([]float64, len(window.Bars))
	for i, b := range window.Bars {
		closes[i] = b.Close
	}
	logReturns := formulas.LogReturns(closes)

	returns := make([]map[string]interface{}, 0, len(logReturns))
	for i, ret := range logReturns {
		returns = append(returns, map[string]interface{}{
			"date":   window.Bars[i+1].Date,
			"return": ret,
		})
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"symbol":  window.Symbol,
		"period":  window.Period,
		"returns": returns,
		"count":   len(returns),
		"mean":    formulas.Mean(logReturns),
		"std_dev": formulas.PopStdDev(logReturns),
	}))
}

// HandleGetCorrelationMatrix handles GET /api/assets/correlation?symbols=A,B
func (h *Handler) HandleGetCorrelationMatrix(w http.ResponseWriter, r *http.Request) {
	symbols := utils.ParseCSV(r.URL.Query().Get("symbols"))
	if len(symbols) < 2 {
		http.Error(w, "symbols parameter needs at least two symbols", http.StatusBadRequest)
		return
	}

	windows := make([]*universe.Window, 0, len(symbols))
	for _, symbol := range symbols {
		window, err := h.history.Window(r.Context(), symbol, periodParam(r))
		if err != nil {
			h.writeError(w, err, symbol)
			return
		}
		windows = append(windows, window)
	}

	returns := alignedReturns(windows)
	corr := formulas.CorrelationMatrix(returns)
	if corr == nil {
		h.writeError(w, domain.ErrInsufficientHistory, symbols[0])
		return
	}

	matrix := make(map[string]map[string]float64, len(windows))
	for i, a := range windows {
		row := make(map[string]float64, len(windows))
		for j, b := range windows {
			row[b.Symbol] = corr.At(i, j)
		}
		matrix[a.Symbol] = row
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"correlation_matrix": matrix,
		"symbols":            symbols,
		"observations":       len(returns[0]),
	}))
}

// HandleRefresh handles POST /api/assets/{symbol}/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request, symbol string) {
	res, err := h.refresher.Refresh(r.Context(), symbol)
	if err != nil {
		h.writeError(w, err, symbol)
		return
	}
	last, _ := res.Series.Last()

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"symbol":       res.Symbol,
		"display_name": res.DisplayName,
		"bars":         res.Series.Len(),
		"last_date":    last.Date,
	}))
}

// alignedReturns keeps the dates every window has and returns the log
// returns of each window's closes on those dates.
func alignedReturns(windows []*universe.Window) [][]float64 {
	counts := make(map[domain.Date]int)
	for _, win := range windows {
		for _, b := range win.Bars {
			counts[b.Date]++
		}
	}

	out := make([][]float64, len(windows))
	for i, win := range windows {
		var closes []float64
		for _, b := range win.Bars {
			if counts[b.Date] == len(windows) {
				closes = append(closes, b.Close)
			}
		}
		out[i] = formulas.LogReturns(closes)
	}
	return out
}

func periodParam(r *http.Request) string {
	if p := r.URL.Query().Get("period"); p != "" {
		return p
	}
	return DefaultPeriod
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error, symbol string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, yahoo.ErrUpstream):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInsufficientHistory):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrResolution), errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to serve asset history")
	}
	http.Error(w, err.Error(), status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.log.Debug().Err(err).Msg("Failed to write JSON response")
	}
}
