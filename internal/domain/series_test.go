package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(date string, open, close float64) Bar {
	return Bar{Date: MustParseDate(date), Open: open, High: max(open, close), Low: min(open, close), Close: close}
}

func TestNewPriceSeries_SortsAndCopies(t *testing.T) {
	input := []Bar{
		bar("2024-01-03", 3, 3),
		bar("2024-01-01", 1, 1),
		bar("2024-01-02", 2, 2),
	}

	s, err := NewPriceSeries(input)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, MustParseDate("2024-01-01"), s.At(0).Date)
	assert.Equal(t, MustParseDate("2024-01-03"), s.At(2).Date)

	// Mutating the input does not leak into the series.
	input[0].Close = 999
	assert.Equal(t, 3.0, s.At(2).Close)

	// Nor does mutating the returned copy.
	bars := s.Bars()
	bars[0].Close = 999
	assert.Equal(t, 1.0, s.At(0).Close)
}

func TestNewPriceSeries_RejectsDuplicateDates(t *testing.T) {
	_, err := NewPriceSeries([]Bar{
		bar("2024-01-01", 1, 1),
		bar("2024-01-01", 2, 2),
	})
	assert.ErrorIs(t, err, ErrDuplicateDate)
}

func TestPriceSeries_Empty(t *testing.T) {
	var s PriceSeries

	assert.True(t, s.Empty())
	_, ok := s.First()
	assert.False(t, ok)
	_, ok = s.Last()
	assert.False(t, ok)

	_, err := s.LatestClose()
	assert.ErrorIs(t, err, ErrEmptySeries)
	assert.True(t, s.Between(MustParseDate("2000-01-01"), MustParseDate("2030-01-01")).Empty())
}

func TestPriceSeries_Between(t *testing.T) {
	s := MustPriceSeries([]Bar{
		bar("2024-01-01", 1, 1),
		bar("2024-01-02", 2, 2),
		bar("2024-01-04", 4, 4),
		bar("2024-01-05", 5, 5),
	})

	tests := []struct {
		name       string
		begin, end string
		wantFirst  string
		wantLen    int
	}{
		{name: "inclusive both ends", begin: "2024-01-02", end: "2024-01-04", wantFirst: "2024-01-02", wantLen: 2},
		{name: "gap at begin", begin: "2024-01-03", end: "2024-01-05", wantFirst: "2024-01-04", wantLen: 2},
		{name: "wider than data", begin: "2023-01-01", end: "2025-01-01", wantFirst: "2024-01-01", wantLen: 4},
		{name: "single day", begin: "2024-01-05", end: "2024-01-05", wantFirst: "2024-01-05", wantLen: 1},
		{name: "inside a gap", begin: "2024-01-03", end: "2024-01-03", wantLen: 0},
		{name: "inverted", begin: "2024-01-05", end: "2024-01-01", wantLen: 0},
		{name: "after data", begin: "2024-02-01", end: "2024-03-01", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Between(MustParseDate(tt.begin), MustParseDate(tt.end))
			require.Equal(t, tt.wantLen, got.Len())
			if tt.wantLen > 0 {
				first, _ := got.First()
				assert.Equal(t, MustParseDate(tt.wantFirst), first.Date)
			}
		})
	}
}

func TestPriceSeries_LookupAndSince(t *testing.T) {
	s := MustPriceSeries([]Bar{
		bar("2024-01-01", 1, 1.5),
		bar("2024-01-03", 3, 3.5),
	})

	b, ok := s.Lookup(MustParseDate("2024-01-03"))
	require.True(t, ok)
	assert.Equal(t, 3.0, b.Open)

	_, ok = s.Lookup(MustParseDate("2024-01-02"))
	assert.False(t, ok)

	assert.Equal(t, 1, s.Since(MustParseDate("2024-01-02")).Len())
	assert.Equal(t, 2, s.Since(MustParseDate("2000-01-01")).Len())

	closeValue, err := s.LatestClose()
	require.NoError(t, err)
	assert.Equal(t, 3.5, closeValue)
	assert.Equal(t, []float64{1.5, 3.5}, s.Closes())
	assert.Equal(t, []Date{MustParseDate("2024-01-01"), MustParseDate("2024-01-03")}, s.Dates())
}

func TestPriceSeries_Dividends(t *testing.T) {
	withDiv := bar("2024-01-02", 2, 2)
	withDiv.Dividend = 0.25
	s := MustPriceSeries([]Bar{bar("2024-01-01", 1, 1), withDiv})

	divs := s.Dividends()
	require.Len(t, divs, 1)
	assert.Equal(t, 0.25, divs[0].Dividend)
}
