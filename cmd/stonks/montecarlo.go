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
	"github.com/vmihailenco/msgpack/v5"

	"github.com/niksan004/Stonks/internal/modules/portfolio"
	"github.com/niksan004/Stonks/internal/modules/simulation"
)

type montecarloCmd struct {
	assets      pairList
	days        int
	simulations int
	seed        int64
	asJSON      bool
	pathsFile   string

	out io.Writer
}

func (*montecarloCmd) Name() string     { return "montecarlo" }
func (*montecarloCmd) Synopsis() string { return "simulate future portfolio values" }
func (*montecarloCmd) Usage() string {
	return `montecarlo -asset SYMBOL=SHARES [-days N] [-sims N] [-seed S]

  Fits a multivariate log-normal model to the holdings' common history
  and simulates that many price paths over the horizon. Periodic plans do not
  take part in simulations.
`
}

func (c *montecarloCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.assets, "asset", "holding as SYMBOL=SHARES, repeatable")
	f.IntVar(&c.days, "days", 0, "horizon in trading days (configured default when zero)")
	f.IntVar(&c.simulations, "sims", 0, "number of simulated paths (configured default when zero)")
	f.Int64Var(&c.seed, "seed", 0, "random seed (configured default when zero)")
	f.BoolVar(&c.asJSON, "json", false, "print the summary as JSON")
	f.StringVar(&c.pathsFile, "paths", "", "write the full result, paths included, to this msgpack file")
}

func (c *montecarloCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(c.assets) == 0 {
		fmt.Fprintln(os.Stderr, "at least one -asset is required")
		return subcommands.ExitUsageError
	}

	cfg, container, log, err := openContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	days, sims := c.days, c.simulations
	if days == 0 {
		days = cfg.DefaultHorizonDays
	}
	if sims == 0 {
		sims = cfg.DefaultSimulations
	}
	if days > cfg.MaxHorizonDays || sims > cfg.MaxSimulations {
		fmt.Fprintf(os.Stderr, "Error: limits are %d days and %d simulations\n", cfg.MaxHorizonDays, cfg.MaxSimulations)
		return subcommands.ExitUsageError
	}

	p := portfolio.New(container.Resolver, log)
	if err := buildPortfolio(ctx, p, c.assets, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	engine := container.Simulator
	if c.seed != 0 {
		engine = engine.WithSeed(c.seed)
	}
	result, err := engine.Run(p, days, sims)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.pathsFile != "" {
		if err := writePaths(c.pathsFile, result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	if err := c.print(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *montecarloCmd) print(result *simulation.Result) error {
	out := stdout(c.out)
	summary := *result
	summary.Paths = nil

	if c.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Horizon\t%d days\n", result.PeriodDays)
	fmt.Fprintf(tw, "Simulations\t%d (seed %d)\n", result.Simulations, result.Seed)
	fmt.Fprintf(tw, "Observations\t%d\n", result.Observations)
	fmt.Fprintf(tw, "Initial value\t%.2f\n", result.InitialValue)
	fmt.Fprintf(tw, "Expected return\t%.4f\n", result.ExpectedReturn)
	fmt.Fprintf(tw, "Volatility\t%.4f\n", result.Volatility)
	fmt.Fprintf(tw, "Mean\t%.2f\n", result.Stats.Mean)
	fmt.Fprintf(tw, "Worst case (5%%)\t%.2f\n", result.Stats.WorstCase)
	fmt.Fprintf(tw, "Best case (95%%)\t%.2f\n", result.Stats.BestCase)
	fmt.Fprintf(tw, "Std dev\t%.2f\n", result.Stats.StdDev)
	fmt.Fprintf(tw, "Risk\t%.2f%%\n", result.Stats.RiskPct)
	return tw.Flush()
}

func writePaths(path string, result *simulation.Result) error {
	data, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode paths: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write paths: %w", err)
	}
	return nil
}
