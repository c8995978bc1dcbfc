package domain

import (
	"fmt"
	"sort"
)

// Bar is one daily price record.
type Bar struct {
	Date     Date    `json:"date" msgpack:"date"`
	Open     float64 `json:"open" msgpack:"open"`
	High     float64 `json:"high" msgpack:"high"`
	Low      float64 `json:"low" msgpack:"low"`
	Close    float64 `json:"close" msgpack:"close"`
	Volume   int64   `json:"volume" msgpack:"volume"`
	Dividend float64 `json:"dividend" msgpack:"dividend"`
}

// PriceSeries is an immutable, strictly date-ascending sequence of bars.
// The zero value is an empty series.
type PriceSeries struct {
	bars []Bar
}

// NewPriceSeries copies and sorts bars. Two bars on the same date are rejected.
func NewPriceSeries(bars []Bar) (PriceSeries, error) {
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date == sorted[i-1].Date {
			return PriceSeries{}, fmt.Errorf("%w: %s", ErrDuplicateDate, sorted[i].Date)
		}
	}
	return PriceSeries{bars: sorted}, nil
}

// MustPriceSeries is like NewPriceSeries but panics on error.
func MustPriceSeries(bars []Bar) PriceSeries {
	s, err := NewPriceSeries(bars)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// Len returns the number of bars.
func (s PriceSeries) Len() int { return len(s.bars) }

// Empty reports whether the series has no bars.
func (s PriceSeries) Empty() bool { return len(s.bars) == 0 }

// Bars returns a copy of the bars.
func (s PriceSeries) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// At returns the i-th bar. It panics when i is out of range.
func (s PriceSeries) At(i int) Bar { return s.bars[i] }

// First returns the earliest bar.
func (s PriceSeries) First() (Bar, bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[0], true
}

// Last returns the latest bar.
func (s PriceSeries) Last() (Bar, bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// LatestClose returns the close of the latest bar.
func (s PriceSeries) LatestClose() (float64, error) {
	last, ok := s.Last()
	if !ok {
		return 0, ErrEmptySeries
	}
	return last.Close, nil
}

// Between returns the bars with begin <= date <= end. The result shares
// storage with s, which is safe because neither is ever mutated.
func (s PriceSeries) Between(begin, end Date) PriceSeries {
	if end.Before(begin) {
		return PriceSeries{}
	}
	lo := s.searchFrom(begin)
	hi := sort.Search(len(s.bars), func(i int) bool {
		return s.bars[i].Date.After(end)
	})
	if lo >= hi {
		return PriceSeries{}
	}
	return PriceSeries{bars: s.bars[lo:hi:hi]}
}

// Since returns the bars dated on or after begin.
func (s PriceSeries) Since(begin Date) PriceSeries {
	lo := s.searchFrom(begin)
	return PriceSeries{bars: s.bars[lo:len(s.bars):len(s.bars)]}
}

// Lookup returns the bar dated exactly d.
func (s PriceSeries) Lookup(d Date) (Bar, bool) {
	i := s.searchFrom(d)
	if i < len(s.bars) && s.bars[i].Date == d {
		return s.bars[i], true
	}
	return Bar{}, false
}

// Dates returns the bar dates in order.
func (s PriceSeries) Dates() []Date {
	out := make([]Date, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Date
	}
	return out
}

// Closes returns the closing prices in date order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Close
	}
	return out
}

// Dividends returns the bars with a nonzero dividend.
func (s PriceSeries) Dividends() []Bar {
	var out []Bar
	for _, b := range s.bars {
		if b.Dividend != 0 {
			out = append(out, b)
		}
	}
	return out
}

func (s PriceSeries) searchFrom(d Date) int {
	return sort.Search(len(s.bars), func(i int) bool {
		return !s.bars[i].Date.Before(d)
	})
}
