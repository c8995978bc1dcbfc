package testing

import (
	"time"

	"github.com/niksan004/Stonks/internal/domain"
)

// PriceFunc returns the open and close for the i-th generated bar.
type PriceFunc func(i int) (open, close float64)

// Flat returns the same open and close for every bar.
func Flat(open, close float64) PriceFunc {
	return func(int) (float64, float64) { return open, close }
}

// Linear starts at base and adds step per bar; open equals close.
func Linear(base, step float64) PriceFunc {
	return func(i int) (float64, float64) {
		p := base + step*float64(i)
		return p, p
	}
}

// DailySeries generates days consecutive calendar-day bars starting at start.
func DailySeries(start string, days int, prices PriceFunc) domain.PriceSeries {
	first := domain.MustParseDate(start)
	bars := make([]domain.Bar, days)
	for i := range bars {
		open, closePrice := prices(i)
		bars[i] = domain.Bar{
			Date:   first.AddDays(i),
			Open:   open,
			High:   max(open, closePrice),
			Low:    min(open, closePrice),
			Close:  closePrice,
			Volume: 1000,
		}
	}
	return domain.MustPriceSeries(bars)
}

// WeekdaySeries generates bars only for Monday to Friday between start and
// end inclusive, the calendar of a real exchange without holidays.
func WeekdaySeries(start, end string, prices PriceFunc) domain.PriceSeries {
	var bars []domain.Bar
	last := domain.MustParseDate(end)
	i := 0
	for d := domain.MustParseDate(start); !d.After(last); d = d.AddDays(1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		open, closePrice := prices(i)
		bars = append(bars, domain.Bar{
			Date:  d,
			Open:  open,
			High:  max(open, closePrice),
			Low:   min(open, closePrice),
			Close: closePrice,
		})
		i++
	}
	return domain.MustPriceSeries(bars)
}

// BarsSeries builds a series from (date, open, close) triples.
func BarsSeries(rows ...Row) domain.PriceSeries {
	bars := make([]domain.Bar, len(rows))
	for i, r := range rows {
		bars[i] = domain.Bar{
			Date:     domain.MustParseDate(r.Date),
			Open:     r.Open,
			High:     max(r.Open, r.Close),
			Low:      min(r.Open, r.Close),
			Close:    r.Close,
			Dividend: r.Dividend,
		}
	}
	return domain.MustPriceSeries(bars)
}

// Row is a compact bar description for BarsSeries.
type Row struct {
	Date     string
	Open     float64
	Close    float64
	Dividend float64
}

// AppleFixture is three bars of a well-known ticker: opens 145, 150, 152
// and closes 150, 155, 160.
func AppleFixture() domain.Resolution {
	return domain.Resolution{
		Symbol:      "AAPL",
		DisplayName: "Apple Inc.",
		Series: BarsSeries(
			Row{Date: "2022-01-03", Open: 145, Close: 150},
			Row{Date: "2022-01-04", Open: 150, Close: 155},
			Row{Date: "2022-01-05", Open: 152, Close: 160},
		),
	}
}

// MustAsset builds an asset from a resolution and panics on error.
func MustAsset(r domain.Resolution) domain.Asset {
	a, err := domain.NewAsset(r.Symbol, r.DisplayName, r.Series)
	if err != nil {
		panic(err.Error())
	}
	return a
}
