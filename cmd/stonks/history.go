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

	"github.com/niksan004/Stonks/internal/modules/universe"
)

type historyCmd struct {
	symbol string
	period string
	asJSON bool

	out io.Writer
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display an asset's recent daily bars" }
func (*historyCmd) Usage() string {
	return `history -symbol <symbol> [-period "1 month"]

  Prints the daily bars of one asset over a look-back period, fetching and
  caching its history on first use. Use -period list to see the periods.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "ticker symbol")
	f.StringVar(&c.period, "period", "1 month", "look-back period")
	f.BoolVar(&c.asJSON, "json", false, "print the window as JSON")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	out := stdout(c.out)
	if c.period == "list" {
		for _, p := range universe.Periods {
			fmt.Fprintf(out, "%s\t%d days\n", p.Name, p.Days)
		}
		return subcommands.ExitSuccess
	}
	if c.symbol == "" {
		fmt.Fprintln(os.Stderr, "-symbol must be provided")
		return subcommands.ExitUsageError
	}

	_, container, _, err := openContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	window, err := container.HistoryService.Window(ctx, c.symbol, c.period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := printWindow(out, window, c.asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printWindow(out io.Writer, window *universe.Window, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(window)
	}

	fmt.Fprintf(out, "%s (%s) since %s\n", window.DisplayName, window.Symbol, window.Since)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Date\tOpen\tHigh\tLow\tClose\tVolume\tDividend\t")
	for _, b := range window.Bars {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%d\t%.4f\t\n",
			b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, b.Dividend)
	}
	return tw.Flush()
}
