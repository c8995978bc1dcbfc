package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niksan004/Stonks/internal/domain"
)

// 2024-01-02 14:30 UTC and 2024-01-03 14:30 UTC (market open in New York).
// The null row on 2024-01-04 must be skipped.
const chartFixture = `{
  "chart": {
    "result": [{
      "meta": {
        "symbol": "AAPL",
        "currency": "USD",
        "shortName": "Apple Inc.",
        "longName": "Apple Inc. Long",
        "exchangeTimezoneName": "America/New_York"
      },
      "timestamp": [1704205800, 1704292200, 1704378600],
      "events": {
        "dividends": {
          "1704292200": {"amount": 0.24, "date": 1704292200}
        }
      },
      "indicators": {
        "quote": [{
          "open":   [187.15, 184.22, null],
          "high":   [188.44, 185.88, null],
          "low":    [183.89, 183.43, null],
          "close":  [185.64, 184.25, null],
          "volume": [82488700, 58414500, null]
        }]
      }
    }],
    "error": null
  }
}`

func newTestChartClient(t *testing.T, handler http.HandlerFunc) *ChartClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewChartClient(ChartConfig{BaseURL: server.URL, Timeout: 5 * time.Second}, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestChartClient_FetchHistory(t *testing.T) {
	var gotPath, gotRange, gotEvents, gotUA string
	client := newTestChartClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		gotEvents = r.URL.Query().Get("events")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartFixture))
	})

	history, err := client.FetchHistory(context.Background(), "aapl", "5y")
	require.NoError(t, err)

	assert.Equal(t, "/AAPL", gotPath)
	assert.Equal(t, "5y", gotRange)
	assert.Equal(t, "div", gotEvents)
	assert.NotEmpty(t, gotUA)

	assert.Equal(t, "AAPL", history.Symbol)
	assert.Equal(t, "Apple Inc.", history.DisplayName)
	assert.Equal(t, "USD", history.Currency)
	require.Len(t, history.Bars, 2)

	first := history.Bars[0]
	assert.Equal(t, domain.MustParseDate("2024-01-02"), first.Date)
	assert.Equal(t, 187.15, first.Open)
	assert.Equal(t, 185.64, first.Close)
	assert.Equal(t, int64(82488700), first.Volume)
	assert.Zero(t, first.Dividend)

	second := history.Bars[1]
	assert.Equal(t, domain.MustParseDate("2024-01-03"), second.Date)
	assert.Equal(t, 0.24, second.Dividend)
}

func TestChartClient_DefaultsToMaxRange(t *testing.T) {
	var gotRange string
	client := newTestChartClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.URL.Query().Get("range")
		_, _ = w.Write([]byte(chartFixture))
	})

	_, err := client.FetchHistory(context.Background(), "AAPL", "")
	require.NoError(t, err)
	assert.Equal(t, "max", gotRange)
}

func TestChartClient_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantResolve bool
		wantUp      bool
	}{
		{
			name:        "unknown symbol",
			status:      http.StatusNotFound,
			body:        `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`,
			wantResolve: true,
		},
		{
			name:        "error payload with 200",
			status:      http.StatusOK,
			body:        `{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid input"}}}`,
			wantResolve: true,
		},
		{
			name:        "empty result",
			status:      http.StatusOK,
			body:        `{"chart":{"result":[],"error":null}}`,
			wantResolve: true,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `oops`,
			wantUp: true,
		},
		{
			name:   "garbage body",
			status: http.StatusOK,
			body:   `<html>`,
			wantUp: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestChartClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.FetchHistory(context.Background(), "ZZZZ", "max")
			require.Error(t, err)
			assert.Equal(t, tt.wantResolve, errors.Is(err, domain.ErrResolution), err.Error())
			assert.Equal(t, tt.wantUp, errors.Is(err, ErrUpstream), err.Error())
		})
	}
}

func TestChartClient_ContextCancelled(t *testing.T) {
	client := newTestChartClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartFixture))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchHistory(ctx, "AAPL", "max")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestChartClient_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	body := `{"chart":{"result":[{"meta":{"symbol":"X","exchangeTimezoneName":"Mars/Olympus"},
		"timestamp":[1704153600],"indicators":{"quote":[{"open":[1],"high":[1],"low":[1],"close":[1],"volume":[1]}]}}]}}`
	client := newTestChartClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	history, err := client.FetchHistory(context.Background(), "X", "max")
	require.NoError(t, err)
	require.Len(t, history.Bars, 1)
	assert.Equal(t, domain.MustParseDate("2024-01-02"), history.Bars[0].Date)
	assert.Equal(t, "X", history.DisplayName)
}
