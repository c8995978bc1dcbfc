// Package handlers provides HTTP handlers for portfolio sessions.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/niksan004/Stonks/internal/clients/yahoo"
	"github.com/niksan004/Stonks/internal/domain"
	"github.com/niksan004/Stonks/internal/modules/backtest"
	"github.com/niksan004/Stonks/internal/modules/portfolio"
	"github.com/niksan004/Stonks/internal/modules/session"
	"github.com/niksan004/Stonks/internal/modules/simulation"
)

// Limits bounds the work a single simulation request may ask for.
type Limits struct {
	MaxPeriodDays  int
	MaxSimulations int
}

// Handler handles session HTTP requests
type Handler struct {
	store      *session.Store
	backtester *backtest.Engine
	simulator  *simulation.Engine
	limits     Limits
	seed       func() int64
	log        zerolog.Logger
}

// NewHandler creates a new session handler
func NewHandler(
	store *session.Store,
	backtester *backtest.Engine,
	simulator *simulation.Engine,
	limits Limits,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		store:      store,
		backtester: backtester,
		simulator:  simulator,
		limits:     limits,
		seed:       func() int64 { return time.Now().UnixNano() },
		log:        log.With().Str("handler", "session").Logger(),
	}
}

type holdingView struct {
	Symbol      string  `json:"symbol"`
	DisplayName string  `json:"display_name"`
	Shares      float64 `json:"shares"`
	LatestClose float64 `json:"latest_close"`
	Value       float64 `json:"value"`
}

type planView struct {
	Symbol          string  `json:"symbol"`
	DisplayName     string  `json:"display_name"`
	PeriodDays      int     `json:"period_days"`
	SharesPerPeriod float64 `json:"shares_per_period"`
}

type sessionView struct {
	ID           string        `json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	Holdings     []holdingView `json:"holdings"`
	Plans        []planView    `json:"plans"`
	InitialValue float64       `json:"initial_value"`
}

func viewOf(sess *session.Session, p *portfolio.Portfolio) (sessionView, error) {
	v := sessionView{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		Holdings:  []holdingView{},
		Plans:     []planView{},
	}
	for _, h := range p.Holdings() {
		last, err := h.Asset.Series.LatestClose()
		if err != nil {
			return v, err
		}
		v.Holdings = append(v.Holdings, holdingView{
			Symbol:      h.Asset.Symbol,
			DisplayName: h.Asset.DisplayName,
			Shares:      h.Shares,
			LatestClose: last,
			Value:       last * h.Shares,
		})
	}
	for _, e := range p.Plans() {
		v.Plans = append(v.Plans, planView{
			Symbol:          e.Asset.Symbol,
			DisplayName:     e.Asset.DisplayName,
			PeriodDays:      e.Plan.PeriodDays,
			SharesPerPeriod: e.Plan.SharesPerPeriod,
		})
	}
	value, err := p.InitialValue()
	if err != nil {
		return v, err
	}
	v.InitialValue = value
	return v, nil
}

// HandleCreateSession handles POST /api/sessions
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Create()
	h.log.Info().Str("session_id", sess.ID).Msg("Session created")

	h.writeJSON(w, http.StatusCreated, envelope(map[string]interface{}{
		"id":         sess.ID,
		"created_at": sess.CreatedAt,
	}))
}

// HandleGetSession handles GET /api/sessions/{id}
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.store.Get(id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var view sessionView
	err = h.store.With(id, func(p *portfolio.Portfolio) error {
		view, err = viewOf(sess, p)
		return err
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(view))
}

// HandleDeleteSession handles DELETE /api/sessions/{id}
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Delete(id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addAssetRequest struct {
	Symbol string  `json:"symbol"`
	Shares float64 `json:"shares"`
}

// HandleAddAsset handles POST /api/sessions/{id}/assets
func (h *Handler) HandleAddAsset(w http.ResponseWriter, r *http.Request, id string) {
	var req addAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	var added holdingView
	err := h.store.With(id, func(p *portfolio.Portfolio) error {
		asset, err := p.AddAsset(r.Context(), req.Symbol, req.Shares)
		if err != nil {
			return err
		}
		last, err := asset.Series.LatestClose()
		if err != nil {
			return err
		}
		shares := sharesOf(p, asset.Key())
		added = holdingView{
			Symbol:      asset.Symbol,
			DisplayName: asset.DisplayName,
			Shares:      shares,
			LatestClose: last,
			Value:       last * shares,
		}
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info().Str("session_id", id).Str("symbol", added.Symbol).Float64("shares", req.Shares).Msg("Asset added")
	h.writeJSON(w, http.StatusCreated, envelope(added))
}

// HandleRemoveAsset handles DELETE /api/sessions/{id}/assets/{symbol}
func (h *Handler) HandleRemoveAsset(w http.ResponseWriter, r *http.Request, id, symbol string) {
	err := h.store.With(id, func(p *portfolio.Portfolio) error {
		asset, ok := p.FindBySymbol(symbol)
		if !ok {
			return fmt.Errorf("asset %s: %w", symbol, domain.ErrNotFound)
		}
		return p.RemoveAsset(asset.Key())
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type planRequest struct {
	PeriodDays      int     `json:"period_days"`
	SharesPerPeriod float64 `json:"shares_per_period"`
}

// HandlePutPlan handles PUT /api/sessions/{id}/plans/{symbol}
func (h *Handler) HandlePutPlan(w http.ResponseWriter, r *http.Request, id, symbol string) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var view planView
	err := h.store.With(id, func(p *portfolio.Portfolio) error {
		asset, err := p.ResolveAsset(r.Context(), symbol)
		if err != nil {
			return err
		}
		plan, err := p.AddPeriodicPlan(asset, req.PeriodDays, req.SharesPerPeriod)
		if err != nil {
			return err
		}
		view = planView{
			Symbol:          asset.Symbol,
			DisplayName:     asset.DisplayName,
			PeriodDays:      plan.PeriodDays,
			SharesPerPeriod: plan.SharesPerPeriod,
		}
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(view))
}

// HandleRemovePlan handles DELETE /api/sessions/{id}/plans/{symbol}
func (h *Handler) HandleRemovePlan(w http.ResponseWriter, r *http.Request, id, symbol string) {
	err := h.store.With(id, func(p *portfolio.Portfolio) error {
		asset, ok := p.FindBySymbol(symbol)
		if !ok {
			return fmt.Errorf("asset %s: %w", symbol, domain.ErrNotFound)
		}
		return p.RemovePeriodicPlan(asset.Key())
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type backtestRequest struct {
	Begin            domain.Date `json:"begin"`
	End              domain.Date `json:"end"`
	IncludeDividends bool        `json:"include_dividends"`
}

// HandleBacktest handles POST /api/sessions/{id}/backtest
func (h *Handler) HandleBacktest(w http.ResponseWriter, r *http.Request, id string) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Begin.IsZero() || req.End.IsZero() {
		http.Error(w, "begin and end are required", http.StatusBadRequest)
		return
	}

	engine := h.backtester.WithOptions(backtest.Options{IncludeDividends: req.IncludeDividends})
	var result *backtest.Result
	err := h.store.With(id, func(p *portfolio.Portfolio) error {
		var err error
		result, err = engine.Run(p, req.Begin, req.End)
		return err
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	data := map[string]interface{}{
		"result":         result,
		"profit":         result.Profit(),
		"profit_percent": nil,
	}
	if pct, err := result.ProfitPercent(); err == nil {
		data["profit_percent"] = pct
	}
	h.writeJSON(w, http.StatusOK, envelope(data))
}

type monteCarloRequest struct {
	PeriodDays  int    `json:"period_days"`
	Simulations int    `json:"simulations"`
	Seed        *int64 `json:"seed"`
}

// HandleMonteCarlo handles POST /api/sessions/{id}/montecarlo
//
// The response is msgpack when the client sends Accept: application/msgpack.
// ?paths=false leaves out the path matrix.
func (h *Handler) HandleMonteCarlo(w http.ResponseWriter, r *http.Request, id string) {
	var req monteCarloRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if h.limits.MaxPeriodDays > 0 && req.PeriodDays > h.limits.MaxPeriodDays {
		http.Error(w, "period_days exceeds the configured maximum", http.StatusUnprocessableEntity)
		return
	}
	if h.limits.MaxSimulations > 0 && req.Simulations > h.limits.MaxSimulations {
		http.Error(w, "simulations exceeds the configured maximum", http.StatusUnprocessableEntity)
		return
	}

	seed := h.seed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	engine := h.simulator.WithSeed(seed)
	var result *simulation.Result
	err := h.store.With(id, func(p *portfolio.Portfolio) error {
		var err error
		result, err = engine.Run(p, req.PeriodDays, req.Simulations)
		return err
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	if r.URL.Query().Get("paths") == "false" {
		result.Paths = nil
	}

	if wantsMsgpack(r) {
		h.writeMsgpack(w, http.StatusOK, envelope(result))
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(result))
}

func sharesOf(p *portfolio.Portfolio, key domain.AssetKey) float64 {
	for _, holding := range p.Holdings() {
		if holding.Asset.Key() == key {
			return holding.Shares
		}
	}
	return 0
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

func wantsMsgpack(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/msgpack")
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, yahoo.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrResolution),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidPlan),
		errors.Is(err, domain.ErrDataRange),
		errors.Is(err, domain.ErrInsufficientHistory),
		errors.Is(err, domain.ErrDivisionByZero):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		h.log.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}
	http.Error(w, err.Error(), status)
}

// writeJSON encodes before writing the header so an unencodable value
// (NaN or ±Inf) becomes a 500 instead of a truncated 200.
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

func (h *Handler) writeMsgpack(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/msgpack")
	w.WriteHeader(status)

	if err := msgpack.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode msgpack response")
	}
}
