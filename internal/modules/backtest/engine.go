// Package backtest values a portfolio over a historical date range,
// including simulated periodic purchases.
package backtest

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/domain"
	"github.com/niksan004/Stonks/internal/utils"
)

// Engine runs historical backtests. It holds no state between runs.
type Engine struct {
	opts Options
	log  zerolog.Logger
}

// NewEngine creates a backtest engine.
func NewEngine(opts Options, log zerolog.Logger) *Engine {
	return &Engine{
		opts: opts,
		log:  log.With().Str("component", "backtest").Logger(),
	}
}

// WithOptions returns a copy of the engine using opts.
func (e *Engine) WithOptions(opts Options) *Engine {
	c := *e
	c.opts = opts
	return &c
}

// Run computes what buying every static holding at the open of the first
// bar in [begin, end] would have cost and what it was worth at the close
// of the last one, plus the periodic purchases of any plans. Any holding
// without bars in the window fails the whole run with a DataRangeError.
func (e *Engine) Run(p domain.PortfolioView, begin, end domain.Date) (*Result, error) {
	defer utils.OperationTimer("backtest", e.log)()

	result := &Result{Begin: begin, End: end, Options: e.opts}

	for _, h := range p.Holdings() {
		rows := h.Asset.Series.Between(begin, end)
		first, ok := rows.First()
		if !ok {
			return nil, &domain.DataRangeError{Symbol: h.Asset.Symbol, Begin: begin, End: end}
		}
		last, _ := rows.Last()

		ar := AssetResult{
			Symbol:      h.Asset.Symbol,
			DisplayName: h.Asset.DisplayName,
			Shares:      h.Shares,
			FirstDate:   first.Date,
			LastDate:    last.Date,
			BuyingPrice: first.Open * h.Shares,
			FinalPrice:  last.Close * h.Shares,
		}
		if e.opts.IncludeDividends {
			ar.DividendIncome += dividendsAfter(rows, domain.Date{}) * h.Shares
		}

		if plan, ok := p.PeriodicPlan(h.Asset.Key()); ok {
			buy, final, purchases := periodicContribution(rows, begin, end, plan)
			ar.BuyingPrice += buy
			ar.FinalPrice += final
			ar.Purchases = purchases
			if e.opts.IncludeDividends {
				for _, pu := range purchases {
					ar.DividendIncome += dividendsAfter(rows, pu.Date) * pu.Shares
				}
			}
		}

		ar.FinalPrice += ar.DividendIncome

		result.BuyingPrice += ar.BuyingPrice
		result.FinalPrice += ar.FinalPrice
		result.DividendIncome += ar.DividendIncome
		result.PerAsset = append(result.PerAsset, ar)

		e.log.Debug().
			Str("symbol", ar.Symbol).
			Str("first", ar.FirstDate.String()).
			Str("last", ar.LastDate.String()).
			Int("purchases", len(ar.Purchases)).
			Float64("buy", ar.BuyingPrice).
			Float64("final", ar.FinalPrice).
			Msg("Backtested holding")
	}

	e.log.Info().
		Str("begin", begin.String()).
		Str("end", end.String()).
		Int("assets", len(result.PerAsset)).
		Float64("buying_price", result.BuyingPrice).
		Float64("final_price", result.FinalPrice).
		Msg("Backtest completed")

	return result, nil
}

// periodicContribution buys plan.SharesPerPeriod shares every
// plan.PeriodDays days, starting one period after the clamped begin date,
// at the open of the first bar on or after each due date. A due date whose
// forward scan passes the clamped end date is skipped. Every lot is marked
// to the last close of rows.
func periodicContribution(rows domain.PriceSeries, begin, end domain.Date, plan domain.PeriodicPlan) (buy, final float64, purchases []Purchase) {
	first, ok := rows.First()
	if !ok || plan.PeriodDays <= 0 {
		return 0, 0, nil
	}
	last, _ := rows.Last()

	begin = domain.MaxDate(begin, first.Date)
	end = domain.MinDate(end, last.Date)

	for due := begin.AddDays(plan.PeriodDays); !due.After(end); due = due.AddDays(plan.PeriodDays) {
		bar, found := firstBarFrom(rows, due, end)
		if !found {
			continue
		}
		buy += bar.Open * plan.SharesPerPeriod
		final += last.Close * plan.SharesPerPeriod
		purchases = append(purchases, Purchase{Date: bar.Date, Price: bar.Open, Shares: plan.SharesPerPeriod})
	}
	return buy, final, purchases
}

// firstBarFrom scans day by day from d for a bar, giving up after end.
func firstBarFrom(rows domain.PriceSeries, d, end domain.Date) (domain.Bar, bool) {
	for ; !d.After(end); d = d.AddDays(1) {
		if bar, ok := rows.Lookup(d); ok {
			return bar, true
		}
	}
	return domain.Bar{}, false
}

// dividendsAfter sums per-share dividends of rows dated after from. The
// zero Date counts every row.
func dividendsAfter(rows domain.PriceSeries, from domain.Date) float64 {
	total := 0.0
	for _, b := range rows.Dividends() {
		if from.IsZero() || b.Date.After(from) {
			total += b.Dividend
		}
	}
	return total
}

// String summarizes the result for logs and the CLI.
func (r *Result) String() string {
	return fmt.Sprintf("%s..%s buy=%.2f final=%.2f profit=%.2f", r.Begin, r.End, r.BuyingPrice, r.FinalPrice, r.Profit())
}
