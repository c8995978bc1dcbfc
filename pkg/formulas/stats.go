// Package formulas provides the statistics used by the simulation engines.
package formulas

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrZeroTotal is returned when weights are requested for a zero total.
var ErrZeroTotal = errors.New("total is zero")

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// PopStdDev calculates the population standard deviation (divides by n).
func PopStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(data, nil)
	return std
}

// LogReturns converts a value series to log returns.
// Returns[i] = ln(Values[i+1] / Values[i])
func LogReturns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		returns[i-1] = math.Log(values[i] / values[i-1])
	}
	return returns
}

// SampleCovarianceMatrix calculates the covariance matrix of columns, one
// column per variable, normalized by n-1. All columns must have the same
// length of at least two observations, otherwise nil is returned.
func SampleCovarianceMatrix(columns [][]float64) *mat.SymDense {
	x := observations(columns)
	if x == nil {
		return nil
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x, nil)
	return &cov
}

// observations lays columns out as an n×k matrix, one row per observation.
// Returns nil unless every column holds the same n >= 2 values.
func observations(columns [][]float64) *mat.Dense {
	if len(columns) == 0 {
		return nil
	}
	n := len(columns[0])
	if n < 2 {
		return nil
	}
	for _, c := range columns {
		if len(c) != n {
			return nil
		}
	}

	x := mat.NewDense(n, len(columns), nil)
	for j, c := range columns {
		x.SetCol(j, c)
	}
	return x
}

// Percentile returns the p-th percentile (0..100) of data using linear
// interpolation between the closest ranks.
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Weights normalizes amounts so they sum to one.
func Weights(amounts []float64) ([]float64, error) {
	total := floats.Sum(amounts)
	if total == 0 {
		return nil, ErrZeroTotal
	}

	weights := make([]float64, len(amounts))
	floats.ScaleTo(weights, 1/total, amounts)
	return weights, nil
}

// CorrelationMatrix calculates the Pearson correlation matrix of columns,
// with the same shape rules as SampleCovarianceMatrix.
func CorrelationMatrix(columns [][]float64) *mat.SymDense {
	x := observations(columns)
	if x == nil {
		return nil
	}
	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, x, nil)
	return &corr
}
