package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/config"
	"github.com/niksan004/Stonks/internal/di"
	"github.com/niksan004/Stonks/internal/modules/portfolio"
	"github.com/niksan004/Stonks/internal/utils"
	"github.com/niksan004/Stonks/pkg/logger"
)

var verbose = flag.Bool("v", false, "log progress to stderr")

// openContainer loads configuration and wires the price provider and engines.
// Logs go to stderr and stay quiet unless -v is given.
func openContainer() (*config.Config, *di.Container, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}

	level := "warn"
	if *verbose {
		level = cfg.LogLevel
	}
	log := logger.New(logger.Config{Level: level, Pretty: true, Output: os.Stderr})

	container, err := di.WireServices(cfg, log)
	if err != nil {
		return nil, nil, log, err
	}
	return cfg, container, log, nil
}

// pairList collects repeated or comma-separated KEY=VALUE flags.
type pairList []string

func (p *pairList) String() string { return strings.Join(*p, ",") }

func (p *pairList) Set(v string) error {
	for _, item := range utils.ParseCSV(v) {
		if _, _, err := utils.SplitPair(item, "="); err != nil {
			return err
		}
		*p = append(*p, item)
	}
	return nil
}

type holdingSpec struct {
	symbol string
	shares float64
}

type planSpec struct {
	symbol     string
	periodDays int
	shares     float64
}

// parseHolding parses "AAPL=10".
func parseHolding(s string) (holdingSpec, error) {
	symbol, value, err := utils.SplitPair(s, "=")
	if err != nil {
		return holdingSpec{}, err
	}
	shares, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return holdingSpec{}, fmt.Errorf("asset %s: invalid share count %q", symbol, value)
	}
	return holdingSpec{symbol: symbol, shares: shares}, nil
}

// parsePlan parses "AAPL=30:1", thirty days between purchases of one share.
func parsePlan(s string) (planSpec, error) {
	symbol, value, err := utils.SplitPair(s, "=")
	if err != nil {
		return planSpec{}, err
	}
	period, shares, err := utils.SplitPair(value, ":")
	if err != nil {
		return planSpec{}, fmt.Errorf("plan %s: %w", symbol, err)
	}
	days, err := strconv.Atoi(period)
	if err != nil {
		return planSpec{}, fmt.Errorf("plan %s: invalid period %q", symbol, period)
	}
	n, err := strconv.ParseFloat(shares, 64)
	if err != nil {
		return planSpec{}, fmt.Errorf("plan %s: invalid share count %q", symbol, shares)
	}
	return planSpec{symbol: symbol, periodDays: days, shares: n}, nil
}

// buildPortfolio adds every holding and plan to p in flag order.
func buildPortfolio(ctx context.Context, p *portfolio.Portfolio, holdings, plans pairList) error {
	for _, h := range holdings {
		spec, err := parseHolding(h)
		if err != nil {
			return err
		}
		if _, err := p.AddAsset(ctx, spec.symbol, spec.shares); err != nil {
			return err
		}
	}
	for _, pl := range plans {
		spec, err := parsePlan(pl)
		if err != nil {
			return err
		}
		asset, err := p.ResolveAsset(ctx, spec.symbol)
		if err != nil {
			return err
		}
		if _, err := p.AddPeriodicPlan(asset, spec.periodDays, spec.shares); err != nil {
			return err
		}
	}
	return nil
}

func stdout(w io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return os.Stdout
}
