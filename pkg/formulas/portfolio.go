package formulas

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// PortfolioReturn is the weighted sum of per-asset expected returns.
func PortfolioReturn(weights, mu []float64) float64 {
	return floats.Dot(weights, mu)
}

// PortfolioVolatility calculates sqrt(wᵀ Σ w).
func PortfolioVolatility(weights []float64, cov mat.Symmetric) float64 {
	w := mat.NewVecDense(len(weights), weights)
	variance := mat.Inner(w, cov, w)
	if variance < 0 {
		// Rounding on a singular covariance can leave a tiny negative.
		variance = 0
	}
	return math.Sqrt(variance)
}

// GBMStepFactor returns the per-step drift and shock scale for a geometric
// Brownian motion with the given horizon return and volatility, discretized
// into steps equal steps:
//
//	value[t] = value[t-1] * exp(drift + scale*z)
func GBMStepFactor(ret, volatility float64, steps int) (drift, scale float64) {
	n := float64(steps)
	drift = (ret - 0.5*volatility*volatility) / n
	scale = volatility * math.Sqrt(1/n)
	return drift, scale
}
