package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/niksan004/Stonks/internal/clients/yahoo"
	"github.com/niksan004/Stonks/internal/domain"
	"github.com/niksan004/Stonks/internal/modules/universe"
	testutil "github.com/niksan004/Stonks/internal/testing"
)

// MockRefresher is a mock implementation of Refresher
type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Refresh(ctx context.Context, symbol string) (domain.Resolution, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(domain.Resolution), args.Error(1)
}

func (m *MockRefresher) CachedSymbols(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// recentSeries ends today so every named period has bars.
func recentSeries(days int, prices testutil.PriceFunc) domain.PriceSeries {
	return testutil.DailySeries(domain.Today().AddDays(-(days - 1)).String(), days, prices)
}

func setupHandler(t *testing.T) (*Handler, *MockRefresher) {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)

	provider := testutil.NewStaticProvider(
		domain.Resolution{Symbol: "UP", DisplayName: "Up Inc.", Series: recentSeries(400, testutil.Linear(100, 1))},
		domain.Resolution{Symbol: "DOWN", DisplayName: "Down Inc.", Series: recentSeries(400, testutil.Linear(900, -1))},
		domain.Resolution{Symbol: "WAVE", DisplayName: "Wave Inc.", Series: recentSeries(400, func(i int) (float64, float64) {
			p := 100 + 10*math.Sin(float64(i))
			return p, p
		})},
	)
	refresher := new(MockRefresher)
	return NewHandler(universe.NewHistoryService(provider), refresher, logger), refresher
}

func serve(h *Handler, method, target string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Route("/api", h.RegisterRoutes)

	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	d, ok := response["data"].(map[string]interface{})
	require.True(t, ok)
	return d
}

func TestHandleGetHistory(t *testing.T) {
	h, _ := setupHandler(t)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedCount  float64
	}{
		{name: "default period", query: "", expectedStatus: http.StatusOK, expectedCount: 31},
		{name: "one week", query: "?period=" + url.QueryEscape("1 week"), expectedStatus: http.StatusOK, expectedCount: 6},
		{name: "case insensitive", query: "?period=MAX", expectedStatus: http.StatusOK, expectedCount: 400},
		{name: "unknown period", query: "?period=forever", expectedStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h, http.MethodGet, "/api/assets/up/history"+tt.query)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus == http.StatusOK {
				d := data(t, w)
				assert.Equal(t, "UP", d["symbol"])
				assert.Equal(t, "Up Inc.", d["display_name"])
				assert.Equal(t, tt.expectedCount, d["count"])
			}
		})
	}
}

func TestHandleGetHistory_UnknownSymbol(t *testing.T) {
	h, _ := setupHandler(t)
	w := serve(h, http.MethodGet, "/api/assets/NOPE/history")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetReturns(t *testing.T) {
	h, _ := setupHandler(t)

	w := serve(h, http.MethodGet, "/api/assets/UP/returns?period="+url.QueryEscape("1 week"))
	require.Equal(t, http.StatusOK, w.Code)
	d := data(t, w)
	assert.Equal(t, 5.0, d["count"])
	assert.Greater(t, d["mean"], 0.0)

	returns := d["returns"].([]interface{})
	first := returns[0].(map[string]interface{})
	assert.NotEmpty(t, first["date"])
}

func TestHandleGetCorrelationMatrix(t *testing.T) {
	h, _ := setupHandler(t)

	w := serve(h, http.MethodGet, "/api/assets/correlation?symbols=UP,WAVE&period=Max")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	matrix := data(t, w)["correlation_matrix"].(map[string]interface{})
	up := matrix["UP"].(map[string]interface{})
	assert.InDelta(t, 1.0, up["UP"], 1e-9)
	assert.InDelta(t, up["WAVE"], matrix["WAVE"].(map[string]interface{})["UP"], 1e-12)

	w = serve(h, http.MethodGet, "/api/assets/correlation?symbols=UP")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(h, http.MethodGet, "/api/assets/correlation?symbols=UP,NOPE")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetPeriods(t *testing.T) {
	h, _ := setupHandler(t)
	w := serve(h, http.MethodGet, "/api/assets/periods")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data(t, w)["periods"], len(universe.Periods))
}

func TestHandleListAssets(t *testing.T) {
	h, refresher := setupHandler(t)
	refresher.On("CachedSymbols", mock.Anything).Return([]string{"AAPL", "MSFT"}, nil).Once()

	w := serve(h, http.MethodGet, "/api/assets")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, data(t, w)["count"])

	refresher.On("CachedSymbols", mock.Anything).Return(nil, errors.New("disk full")).Once()
	w = serve(h, http.MethodGet, "/api/assets")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	refresher.AssertExpectations(t)
}

func TestHandleRefresh(t *testing.T) {
	h, refresher := setupHandler(t)
	refresher.On("Refresh", mock.Anything, "AAPL").Return(testutil.AppleFixture(), nil).Once()
	refresher.On("Refresh", mock.Anything, "DOWN").
		Return(domain.Resolution{}, &domain.ResolutionError{Symbol: "DOWN", Err: fmt.Errorf("%w: status 503", yahoo.ErrUpstream)}).Once()

	w := serve(h, http.MethodPost, "/api/assets/AAPL/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	d := data(t, w)
	assert.Equal(t, 3.0, d["bars"])
	assert.Equal(t, "2022-01-05", d["last_date"])

	w = serve(h, http.MethodPost, "/api/assets/DOWN/refresh")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	refresher.AssertExpectations(t)
}

func TestAlignedReturns(t *testing.T) {
	a := &universe.Window{Symbol: "A", Bars: testutil.BarsSeries(
		testutil.Row{Date: "2022-01-03", Open: 1, Close: 1},
		testutil.Row{Date: "2022-01-04", Open: 2, Close: 2},
		testutil.Row{Date: "2022-01-05", Open: 4, Close: 4},
	).Bars()}
	b := &universe.Window{Symbol: "B", Bars: testutil.BarsSeries(
		testutil.Row{Date: "2022-01-04", Open: 3, Close: 3},
		testutil.Row{Date: "2022-01-05", Open: 6, Close: 6},
	).Bars()}

	out := alignedReturns([]*universe.Window{a, b})
	require.Len(t, out, 2)
	assert.InDeltaSlice(t, []float64{math.Log(2)}, out[0], 1e-12)
	assert.InDeltaSlice(t, []float64{math.Log(2)}, out[1], 1e-12)
}

func TestWriteJSON_NonFiniteIsServerError(t *testing.T) {
	h := &Handler{log: zerolog.Nop()}
	w := httptest.NewRecorder()

	h.writeJSON(w, http.StatusOK, map[string]float64{"correlation": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "correlation")
}
