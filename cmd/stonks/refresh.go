package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/niksan004/Stonks/internal/utils"
)

type refreshCmd struct {
	symbols string

	out io.Writer
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "re-fetch cached price history" }
func (*refreshCmd) Usage() string {
	return `refresh [-symbol A,B] [SYMBOL...]

  Re-downloads the history of the given symbols, or of every cached
  symbol when none are given.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbols, "symbol", "", "comma-separated symbols to refresh")
}

func (c *refreshCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, container, _, err := openContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	symbols := append(utils.ParseCSV(c.symbols), f.Args()...)
	if len(symbols) == 0 {
		if symbols, err = container.Resolver.CachedSymbols(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	out := stdout(c.out)
	failed := 0
	for _, symbol := range symbols {
		res, err := container.Resolver.Refresh(ctx, symbol)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", symbol, err)
			continue
		}
		fmt.Fprintf(out, "%s\t%d bars\n", res.Symbol, res.Series.Len())
	}

	if failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
