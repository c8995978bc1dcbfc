package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/niksan004/Stonks/internal/domain"
	"github.com/niksan004/Stonks/internal/modules/backtest"
	"github.com/niksan004/Stonks/internal/modules/portfolio"
)

type backtestCmd struct {
	assets    pairList
	plans     pairList
	begin     string
	end       string
	dividends bool
	asJSON    bool

	out io.Writer
}

func (*backtestCmd) Name() string     { return "backtest" }
func (*backtestCmd) Synopsis() string { return "replay a portfolio over historical prices" }
func (*backtestCmd) Usage() string {
	return `backtest -asset SYMBOL=SHARES [-plan SYMBOL=DAYS:SHARES] [-begin DATE] [-end DATE]

  Buys every asset at its first close in the window, adds periodic
  purchases, and reports the value at the window's last close.
  Dates are YYYY-MM-DD; the configured window is used when omitted.
`
}

func (c *backtestCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.assets, "asset", "holding as SYMBOL=SHARES, repeatable")
	f.Var(&c.plans, "plan", "periodic purchase as SYMBOL=DAYS:SHARES, repeatable")
	f.StringVar(&c.begin, "begin", "", "first day of the window")
	f.StringVar(&c.end, "end", "", "last day of the window")
	f.BoolVar(&c.dividends, "dividends", false, "add dividends paid inside the window")
	f.BoolVar(&c.asJSON, "json", false, "print the result as JSON")
}

func (c *backtestCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(c.assets) == 0 && len(c.plans) == 0 {
		fmt.Fprintln(os.Stderr, "at least one -asset or -plan is required")
		return subcommands.ExitUsageError
	}

	cfg, container, log, err := openContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	begin, end := cfg.BacktestWindow()
	if begin, err = dateOr(c.begin, begin); err != nil {
		fmt.Fprintf(os.Stderr, "Error: -begin: %v\n", err)
		return subcommands.ExitUsageError
	}
	if end, err = dateOr(c.end, end); err != nil {
		fmt.Fprintf(os.Stderr, "Error: -end: %v\n", err)
		return subcommands.ExitUsageError
	}

	p := portfolio.New(container.Resolver, log)
	if err := buildPortfolio(ctx, p, c.assets, c.plans); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	engine := container.Backtester
	if c.dividends {
		engine = engine.WithOptions(backtest.Options{IncludeDividends: true})
	}
	result, err := engine.Run(p, begin, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := c.print(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *backtestCmd) print(result *backtest.Result) error {
	out := stdout(c.out)
	if c.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Symbol\tShares\tFrom\tTo\tBought\tFinal\tDividends\tPurchases")
	for _, a := range result.PerAsset {
		fmt.Fprintf(tw, "%s\t%g\t%s\t%s\t%.2f\t%.2f\t%.2f\t%d\n",
			a.Symbol, a.Shares, a.FirstDate, a.LastDate, a.BuyingPrice, a.FinalPrice, a.DividendIncome, len(a.Purchases))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nBuying price: %.2f\nFinal price:  %.2f\nProfit:       %.2f", result.BuyingPrice, result.FinalPrice, result.Profit())
	if pct, err := result.ProfitPercent(); err == nil {
		fmt.Fprintf(out, " (%.2f%%)", pct)
	}
	fmt.Fprintln(out)
	return nil
}

func dateOr(s string, fallback domain.Date) (domain.Date, error) {
	if s == "" {
		return fallback, nil
	}
	return domain.ParseDate(s)
}
