// Package simulation projects portfolio value forward with a Monte Carlo
// geometric Brownian motion fitted to the aligned price history.
package simulation

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/domain"
	"github.com/niksan004/Stonks/internal/utils"
	"github.com/niksan004/Stonks/pkg/formulas"
)

// Engine runs Monte Carlo simulations.
type Engine struct {
	opts Options
	pool *WorkerPool
	log  zerolog.Logger
}

// NewEngine creates a simulation engine.
func NewEngine(opts Options, log zerolog.Logger) *Engine {
	return &Engine{
		opts: opts,
		pool: NewWorkerPool(opts.Workers),
		log:  log.With().Str("component", "simulation").Logger(),
	}
}

// WithSeed returns a copy of the engine drawing from seed.
func (e *Engine) WithSeed(seed int64) *Engine {
	c := *e
	c.opts.Seed = seed
	return &c
}

// model is the fitted drift and volatility of the portfolio.
type model struct {
	symbols      []string
	weights      []float64
	observations int
	ret          float64
	volatility   float64
}

// Run simulates numSimulations paths of periodDays steps each.
func (e *Engine) Run(p domain.PortfolioView, periodDays, numSimulations int) (*Result, error) {
	if periodDays < 1 {
		return nil, fmt.Errorf("%w: period days must be at least 1, got %d", domain.ErrInvalidArgument, periodDays)
	}
	if numSimulations < 1 {
		return nil, fmt.Errorf("%w: simulations must be at least 1, got %d", domain.ErrInvalidArgument, numSimulations)
	}
	holdings := p.Holdings()
	if len(holdings) == 0 {
		return nil, fmt.Errorf("%w: portfolio holds no assets", domain.ErrInvalidArgument)
	}

	defer utils.OperationTimer("monte_carlo", e.log)()

	initial, err := p.InitialValue()
	if err != nil {
		return nil, fmt.Errorf("initial value: %w", err)
	}

	m, err := fit(holdings, periodDays)
	if err != nil {
		// A single step never uses the drift, so missing history only
		// matters for longer horizons.
		if periodDays != 1 || !errors.Is(err, domain.ErrInsufficientHistory) {
			return nil, err
		}
		e.log.Debug().Err(err).Msg("Skipping model fit for single-step simulation")
	}

	paths, finals := e.simulate(initial, m, periodDays, numSimulations)

	result := &Result{
		PeriodDays:     periodDays,
		Simulations:    numSimulations,
		Seed:           e.opts.Seed,
		InitialValue:   initial,
		ExpectedReturn: m.ret,
		Volatility:     m.volatility,
		Symbols:        m.symbols,
		Weights:        m.weights,
		Observations:   m.observations,
		Stats:          summarize(finals, initial),
		Paths:          paths,
	}

	e.log.Info().
		Int("period_days", periodDays).
		Int("simulations", numSimulations).
		Int("workers", e.pool.Workers()).
		Float64("initial_value", initial).
		Float64("mean", result.Stats.Mean).
		Float64("risk", result.Stats.RiskPct).
		Msg("Monte Carlo simulation completed")

	return result, nil
}

// fit estimates the horizon return and volatility of the portfolio from
// the log returns of each holding's close times shares, scaled to
// periodDays.
func fit(holdings []domain.Holding, periodDays int) (model, error) {
	m := model{symbols: make([]string, len(holdings))}
	shares := make([]float64, len(holdings))
	for i, h := range holdings {
		m.symbols[i] = h.Asset.Symbol
		shares[i] = h.Shares
	}

	weights, err := formulas.Weights(shares)
	if err != nil {
		return m, fmt.Errorf("weights: %w", domain.ErrDivisionByZero)
	}
	m.weights = weights

	_, values := alignedValues(holdings)
	returns := make([][]float64, len(values))
	for i, v := range values {
		returns[i] = formulas.LogReturns(v)
	}
	m.observations = len(returns[0])
	if m.observations < 2 {
		return m, fmt.Errorf("%w: %d aligned return observations, need 2", domain.ErrInsufficientHistory, m.observations)
	}

	days := float64(periodDays)
	mu := make([]float64, len(returns))
	for i, r := range returns {
		mu[i] = formulas.Mean(r) * days
	}

	cov := formulas.SampleCovarianceMatrix(returns)
	cov.ScaleSym(days, cov)

	m.ret = formulas.PortfolioReturn(weights, mu)
	m.volatility = formulas.PortfolioVolatility(weights, cov)
	return m, nil
}

// alignedValues inner-joins the holdings on date and returns, per holding,
// close times shares on every common date.
func alignedValues(holdings []domain.Holding) ([]domain.Date, [][]float64) {
	values := make([][]float64, len(holdings))
	var dates []domain.Date
	if len(holdings) == 0 {
		return dates, values
	}

	for _, b := range holdings[0].Asset.Series.Bars() {
		row := make([]float64, len(holdings))
		row[0] = b.Close * holdings[0].Shares
		common := true
		for i := 1; i < len(holdings); i++ {
			other, ok := holdings[i].Asset.Series.Lookup(b.Date)
			if !ok {
				common = false
				break
			}
			row[i] = other.Close * holdings[i].Shares
		}
		if !common {
			continue
		}
		dates = append(dates, b.Date)
		for i, v := range row {
			values[i] = append(values[i], v)
		}
	}
	return dates, values
}

// simulate draws every shock up front, row by row from one seeded source,
// then lets the worker pool advance disjoint column ranges.
func (e *Engine) simulate(initial float64, m model, periodDays, numSimulations int) (paths [][]float64, finals []float64) {
	rng := rand.New(rand.NewSource(e.opts.Seed))
	shocks := make([][]float64, periodDays)
	paths = make([][]float64, periodDays)
	for t := range shocks {
		shocks[t] = make([]float64, numSimulations)
		for s := range shocks[t] {
			shocks[t][s] = rng.NormFloat64()
		}
		paths[t] = make([]float64, numSimulations)
	}
	for s := range paths[0] {
		paths[0][s] = initial
	}

	drift, scale := formulas.GBMStepFactor(m.ret, m.volatility, periodDays)
	finals = e.pool.SimulateBatch(splitPaths(numSimulations, chunkSize), func(c pathChunk) []float64 {
		out := make([]float64, 0, c.to-c.from)
		for s := c.from; s < c.to; s++ {
			for t := 1; t < periodDays; t++ {
				paths[t][s] = paths[t-1][s] * math.Exp(drift+scale*shocks[t][s])
			}
			out = append(out, paths[periodDays-1][s])
		}
		return out
	})
	return paths, finals
}

// summarize computes the statistics of the final values.
func summarize(finals []float64, initial float64) Stats {
	below := 0
	for _, v := range finals {
		if v < initial {
			below++
		}
	}
	return Stats{
		Mean:      formulas.Mean(finals),
		WorstCase: formulas.Percentile(finals, 5),
		BestCase:  formulas.Percentile(finals, 95),
		StdDev:    formulas.PopStdDev(finals),
		RiskPct:   float64(below) / float64(len(finals)) * 100,
	}
}
