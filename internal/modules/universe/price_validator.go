package universe

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/niksan004/Stonks/internal/domain"
)

const (
	maxPriceChangePercent = 1000.0 // >1000% day-over-day is a spike
	minPriceChangePercent = -90.0  // <-90% day-over-day is a crash
)

// Rejection records a bar dropped during sanitization.
type Rejection struct {
	Date   domain.Date
	Reason string
}

// PriceValidator cleans fetched bars before they are cached.
//
// Bars whose open or close is missing, non-finite or non-positive are always
// dropped; the engines divide by and take logs of these values. In strict
// mode OHLC-inconsistent bars and day-over-day spikes are dropped too;
// otherwise High/Low are widened to cover Open/Close.
type PriceValidator struct {
	strict bool
	log    zerolog.Logger
}

// NewPriceValidator creates a new price validator
func NewPriceValidator(strict bool, log zerolog.Logger) *PriceValidator {
	return &PriceValidator{
		strict: strict,
		log:    log.With().Str("component", "price_validator").Logger(),
	}
}

// ValidateBar checks a bar against the previous accepted close (0 if none).
// Returns (isValid, reason).
func (v *PriceValidator) ValidateBar(bar domain.Bar, prevClose float64) (bool, string) {
	if !positive(bar.Open) {
		return false, "invalid_open"
	}
	if !positive(bar.Close) {
		return false, "invalid_close"
	}
	if !v.strict {
		return true, ""
	}

	switch {
	case bar.High < bar.Low:
		return false, "high_below_low"
	case bar.High < bar.Open:
		return false, "high_below_open"
	case bar.High < bar.Close:
		return false, "high_below_close"
	case bar.Low > bar.Open:
		return false, "low_above_open"
	case bar.Low > bar.Close:
		return false, "low_above_close"
	}

	if prevClose > 0 {
		changePercent := (bar.Close - prevClose) / prevClose * 100.0
		if changePercent > maxPriceChangePercent {
			return false, "spike_detected"
		}
		if changePercent < minPriceChangePercent {
			return false, "crash_detected"
		}
	}
	return true, ""
}

// Sanitize deduplicates bars by date (the last occurrence wins), sorts them
// ascending and drops invalid ones.
func (v *PriceValidator) Sanitize(symbol string, bars []domain.Bar) ([]domain.Bar, []Rejection) {
	byDate := make(map[domain.Date]domain.Bar, len(bars))
	for _, b := range bars {
		byDate[b.Date] = b
	}
	unique := make([]domain.Bar, 0, len(byDate))
	for _, b := range byDate {
		unique = append(unique, b)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].Date.Before(unique[j].Date) })

	result := make([]domain.Bar, 0, len(unique))
	var rejected []Rejection
	prevClose := 0.0

	for _, b := range unique {
		if ok, reason := v.ValidateBar(b, prevClose); !ok {
			rejected = append(rejected, Rejection{Date: b.Date, Reason: reason})
			continue
		}
		if !v.strict {
			ensureOHLCConsistency(&b)
		}
		if !finite(b.Dividend) || b.Dividend < 0 {
			b.Dividend = 0
		}
		result = append(result, b)
		prevClose = b.Close
	}

	if len(rejected) > 0 {
		v.log.Warn().
			Str("symbol", symbol).
			Int("rejected", len(rejected)).
			Str("first_reason", rejected[0].Reason).
			Str("first_date", rejected[0].Date.String()).
			Msg("Dropped invalid bars")
	}
	if dupes := len(bars) - len(unique); dupes > 0 {
		v.log.Debug().Str("symbol", symbol).Int("duplicates", dupes).Msg("Collapsed duplicate bar dates")
	}

	return result, rejected
}

func ensureOHLCConsistency(b *domain.Bar) {
	if !finite(b.High) {
		b.High = 0
	}
	if !finite(b.Low) || b.Low <= 0 {
		b.Low = math.Min(b.Open, b.Close)
	}
	b.High = math.Max(b.High, math.Max(b.Open, b.Close))
	b.Low = math.Min(b.Low, math.Min(b.Open, b.Close))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func positive(f float64) bool {
	return finite(f) && f > 0
}
