package simulation

// Options configures the Monte Carlo engine.
type Options struct {
	// Seed drives the single random source of a run. Equal seeds give
	// equal results.
	Seed int64 `json:"seed"`
	// Workers is the number of goroutines computing paths. Values below
	// one select the number of CPUs.
	Workers int `json:"workers"`
}

// Stats summarizes the final row of the simulated paths.
type Stats struct {
	Mean      float64 `json:"mean" msgpack:"mean"`
	WorstCase float64 `json:"worst_case" msgpack:"worst_case"`
	BestCase  float64 `json:"best_case" msgpack:"best_case"`
	StdDev    float64 `json:"std_dev" msgpack:"std_dev"`
	// RiskPct is the percentage of paths ending below the initial value.
	RiskPct float64 `json:"risk" msgpack:"risk"`
}

// Result is the outcome of a simulation run.
// Paths is indexed [step][path]; Paths[0] holds InitialValue everywhere.
type Result struct {
	PeriodDays     int         `json:"period_days" msgpack:"period_days"`
	Simulations    int         `json:"simulations" msgpack:"simulations"`
	Seed           int64       `json:"seed" msgpack:"seed"`
	InitialValue   float64     `json:"initial_value" msgpack:"initial_value"`
	ExpectedReturn float64     `json:"expected_return" msgpack:"expected_return"`
	Volatility     float64     `json:"volatility" msgpack:"volatility"`
	Symbols        []string    `json:"symbols" msgpack:"symbols"`
	Weights        []float64   `json:"weights" msgpack:"weights"`
	Observations   int         `json:"observations" msgpack:"observations"`
	Stats          Stats       `json:"stats" msgpack:"stats"`
	Paths          [][]float64 `json:"paths,omitempty" msgpack:"paths,omitempty"`
}

// Finals returns the last row of Paths.
func (r *Result) Finals() []float64 {
	if len(r.Paths) == 0 {
		return nil
	}
	return r.Paths[len(r.Paths)-1]
}
