package universe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/niksan004/Stonks/internal/domain"
)

// Period is a named look-back window for charting an asset's history.
type Period struct {
	Name string `json:"name"`
	Days int    `json:"days"`
}

// Periods are the windows offered by the asset details view. "1 week" is
// five days, one trading week. "Max" is long enough to cover any series.
var Periods = []Period{
	{Name: "1 day", Days: 1},
	{Name: "1 week", Days: 5},
	{Name: "1 month", Days: 30},
	{Name: "1 year", Days: 365},
	{Name: "5 years", Days: 1825},
	{Name: "10 years", Days: 3650},
	{Name: "Max", Days: 42069},
}

// LookupPeriod finds a period by name, case-insensitively.
func LookupPeriod(name string) (Period, error) {
	name = strings.TrimSpace(name)
	for _, p := range Periods {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	names := make([]string, len(Periods))
	for i, p := range Periods {
		names[i] = p.Name
	}
	sort.Strings(names)
	return Period{}, fmt.Errorf("%w: unknown period %q (want one of %s)",
		domain.ErrInvalidArgument, name, strings.Join(names, ", "))
}

// Window is a slice of one asset's history.
type Window struct {
	Symbol      string       `json:"symbol"`
	DisplayName string       `json:"display_name"`
	Period      Period       `json:"period"`
	Since       domain.Date  `json:"since"`
	Bars        []domain.Bar `json:"bars"`
}

// HistoryService serves history windows through a provider.
type HistoryService struct {
	provider domain.PriceDataProvider
	now      func() time.Time
}

// NewHistoryService creates a history service.
func NewHistoryService(provider domain.PriceDataProvider) *HistoryService {
	return &HistoryService{provider: provider, now: time.Now}
}

// Window returns the bars of symbol dated on or after today minus the period.
func (s *HistoryService) Window(ctx context.Context, symbol, period string) (*Window, error) {
	p, err := LookupPeriod(period)
	if err != nil {
		return nil, err
	}

	res, err := s.provider.Resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	since := domain.DateOf(s.now()).AddDays(-p.Days)
	return &Window{
		Symbol:      res.Symbol,
		DisplayName: res.DisplayName,
		Period:      p,
		Since:       since,
		Bars:        res.Series.Since(since).Bars(),
	}, nil
}
