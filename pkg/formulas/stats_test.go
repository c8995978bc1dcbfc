package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMeanAndPopStdDev(t *testing.T) {
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, Mean(data), 1e-12)
	assert.InDelta(t, 2.0, PopStdDev(data), 1e-12)

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, PopStdDev(nil))
	assert.Equal(t, 0.0, PopStdDev([]float64{42}))
}

func TestLogReturns(t *testing.T) {
	got := LogReturns([]float64{100, 110, 99})
	require.Len(t, got, 2)
	assert.InDelta(t, math.Log(1.1), got[0], 1e-12)
	assert.InDelta(t, math.Log(0.9), got[1], 1e-12)

	assert.Empty(t, LogReturns([]float64{100}))
	assert.Empty(t, LogReturns(nil))
}

func TestSampleCovarianceMatrix(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{2, 4, 6, 8}

	cov := SampleCovarianceMatrix([][]float64{x, y})
	require.NotNil(t, cov)
	require.Equal(t, 2, cov.SymmetricDim())

	// var(x) with n-1 = 5/3
	assert.InDelta(t, 5.0/3.0, cov.At(0, 0), 1e-12)
	assert.InDelta(t, 20.0/3.0, cov.At(1, 1), 1e-12)
	assert.InDelta(t, 10.0/3.0, cov.At(0, 1), 1e-12)
	assert.Equal(t, cov.At(0, 1), cov.At(1, 0))
}

func TestSampleCovarianceMatrix_InvalidInput(t *testing.T) {
	assert.Nil(t, SampleCovarianceMatrix(nil))
	assert.Nil(t, SampleCovarianceMatrix([][]float64{{1}}))
	assert.Nil(t, SampleCovarianceMatrix([][]float64{{1, 2}, {1, 2, 3}}))
}

func TestPercentile(t *testing.T) {
	data := []float64{15, 20, 35, 40, 50}

	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{name: "min", p: 0, want: 15},
		{name: "max", p: 100, want: 50},
		{name: "median", p: 50, want: 35},
		{name: "p5 interpolates", p: 5, want: 16},
		{name: "p95 interpolates", p: 95, want: 48},
		{name: "p40", p: 40, want: 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(data, tt.p), 1e-12)
		})
	}

	assert.Equal(t, 7.0, Percentile([]float64{7}, 5))
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
}

func TestPercentile_DoesNotReorderInput(t *testing.T) {
	data := []float64{3, 1, 2}
	Percentile(data, 50)
	assert.Equal(t, []float64{3, 1, 2}, data)
}

func TestWeights(t *testing.T) {
	w, err := Weights([]float64{10, 30})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, w, 1e-12)

	_, err = Weights([]float64{0, 0})
	assert.ErrorIs(t, err, ErrZeroTotal)

	_, err = Weights(nil)
	assert.ErrorIs(t, err, ErrZeroTotal)
}

func TestPortfolioReturnAndVolatility(t *testing.T) {
	weights := []float64{0.5, 0.5}
	mu := []float64{0.1, 0.2}
	assert.InDelta(t, 0.15, PortfolioReturn(weights, mu), 1e-12)

	cov := mat.NewSymDense(2, []float64{
		0.04, 0.0,
		0.0, 0.09,
	})
	// 0.25*0.04 + 0.25*0.09 = 0.0325
	assert.InDelta(t, math.Sqrt(0.0325), PortfolioVolatility(weights, cov), 1e-12)

	single := mat.NewSymDense(1, []float64{0.16})
	assert.InDelta(t, 0.4, PortfolioVolatility([]float64{1}, single), 1e-12)
}

func TestGBMStepFactor(t *testing.T) {
	drift, scale := GBMStepFactor(0.1, 0.2, 4)
	assert.InDelta(t, (0.1-0.02)/4, drift, 1e-12)
	assert.InDelta(t, 0.2*0.5, scale, 1e-12)
}

func TestCorrelationMatrix(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	b := []float64{2, 4, 6, 8}
	c := []float64{4, 3, 2, 1}

	corr := CorrelationMatrix([][]float64{a, b, c})
	require.NotNil(t, corr)
	assert.InDelta(t, 1.0, corr.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, corr.At(0, 1), 1e-12)
	assert.InDelta(t, -1.0, corr.At(0, 2), 1e-12)

	partial := CorrelationMatrix([][]float64{{1, 2, 3, 4}, {1, 3, 2, 4}})
	require.NotNil(t, partial)
	assert.InDelta(t, 0.8, partial.At(0, 1), 1e-12)
	assert.InDelta(t, 0.8, partial.At(1, 0), 1e-12)

	assert.Nil(t, CorrelationMatrix([][]float64{{1}}))
	assert.Nil(t, CorrelationMatrix([][]float64{{1, 2, 3}, {1, 2}}))
}
