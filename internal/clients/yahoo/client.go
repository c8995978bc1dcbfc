package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/domain"
)

// DefaultChartURL is the Yahoo Finance v8 chart endpoint.
const DefaultChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// ChartConfig configures a ChartClient.
type ChartConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ChartClient reads daily bars from the Yahoo chart API over plain HTTP.
type ChartClient struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewChartClient creates a new chart API client
func NewChartClient(cfg ChartConfig, log zerolog.Logger) *ChartClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultChartURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ChartClient{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		log:     log.With().Str("client", "yahoo-chart").Logger(),
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		Currency             string `json:"currency"`
		ShortName            string `json:"shortName"`
		LongName             string `json:"longName"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp []int64 `json:"timestamp"`
	Events    struct {
		Dividends map[string]struct {
			Amount float64 `json:"amount"`
			Date   int64   `json:"date"`
		} `json:"dividends"`
	} `json:"events"`
	Indicators struct {
		Quote []struct {
			Open   []float64 `json:"open"`
			High   []float64 `json:"high"`
			Low    []float64 `json:"low"`
			Close  []float64 `json:"close"`
			Volume []int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// FetchHistory fetches daily bars and dividend events for symbol.
func (c *ChartClient) FetchHistory(ctx context.Context, symbol, rangeSpec string) (*History, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if rangeSpec == "" {
		rangeSpec = "max"
	}

	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", rangeSpec)
	params.Add("events", "div")
	reqURL := c.baseURL + url.PathEscape(symbol) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch %s: %v", ErrUpstream, symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &domain.ResolutionError{Symbol: symbol, Err: fmt.Errorf("unknown symbol")}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", ErrUpstream, err)
	}
	if parsed.Chart.Error != nil {
		return nil, &domain.ResolutionError{
			Symbol: symbol,
			Err:    fmt.Errorf("%s: %s", parsed.Chart.Error.Code, parsed.Chart.Error.Description),
		}
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, &domain.ResolutionError{Symbol: symbol, Err: domain.ErrEmptySeries}
	}

	history := c.toHistory(symbol, parsed.Chart.Result[0])

	c.log.Info().
		Str("symbol", symbol).
		Str("range", rangeSpec).
		Int("count", len(history.Bars)).
		Msg("Fetched historical prices")

	return history, nil
}

func (c *ChartClient) toHistory(symbol string, r chartResult) *History {
	loc := time.UTC
	if r.Meta.ExchangeTimezoneName != "" {
		if l, err := time.LoadLocation(r.Meta.ExchangeTimezoneName); err == nil {
			loc = l
		} else {
			c.log.Debug().Err(err).Str("tz", r.Meta.ExchangeTimezoneName).Msg("Unknown exchange time zone, using UTC")
		}
	}
	dayOf := func(sec int64) domain.Date {
		return domain.DateOf(time.Unix(sec, 0).In(loc))
	}

	dividends := make(map[domain.Date]float64, len(r.Events.Dividends))
	for _, div := range r.Events.Dividends {
		dividends[dayOf(div.Date)] += div.Amount
	}

	history := &History{
		Symbol:      symbol,
		DisplayName: displayName(symbol, r.Meta.ShortName, r.Meta.LongName),
		Currency:    r.Meta.Currency,
	}
	if len(r.Indicators.Quote) == 0 {
		return history
	}
	quote := r.Indicators.Quote[0]

	for i, ts := range r.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}
		// Yahoo returns null for halted days, which decodes to zero.
		if quote.Open[i] == 0 && quote.High[i] == 0 && quote.Low[i] == 0 && quote.Close[i] == 0 {
			continue
		}

		var volume int64
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}

		day := dayOf(ts)
		history.Bars = append(history.Bars, domain.Bar{
			Date:     day,
			Open:     quote.Open[i],
			High:     quote.High[i],
			Low:      quote.Low[i],
			Close:    quote.Close[i],
			Volume:   volume,
			Dividend: dividends[day],
		})
	}
	return history
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
