package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to test for an error kind; the typed
// errors below carry context and match their sentinel.
var (
	ErrResolution          = errors.New("asset resolution failed")
	ErrDataRange           = errors.New("no price data in requested range")
	ErrInvalidPlan         = errors.New("invalid periodic plan")
	ErrDivisionByZero      = errors.New("division by zero")
	ErrNotFound            = errors.New("not found")
	ErrEmptySeries         = errors.New("empty price series")
	ErrDuplicateDate       = errors.New("duplicate bar date")
	ErrInsufficientHistory = errors.New("insufficient price history")
	ErrInvalidArgument     = errors.New("invalid argument")
)

// ResolutionError reports that a symbol could not be turned into an Asset.
type ResolutionError struct {
	Symbol string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %s: %v", e.Symbol, e.Err)
	}
	return fmt.Sprintf("resolve %s: %v", e.Symbol, ErrResolution)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrResolution) match.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// DataRangeError reports that an asset has no bars inside a backtest window.
type DataRangeError struct {
	Symbol string
	Begin  Date
	End    Date
}

func (e *DataRangeError) Error() string {
	return fmt.Sprintf("%s: no price data between %s and %s", e.Symbol, e.Begin, e.End)
}

func (e *DataRangeError) Is(target error) bool {
	return target == ErrDataRange
}

// InvalidPlanError reports a periodic plan with a non-positive period or share count.
type InvalidPlanError struct {
	PeriodDays      int
	SharesPerPeriod float64
}

func (e *InvalidPlanError) Error() string {
	return fmt.Sprintf("invalid periodic plan: period_days=%d shares_per_period=%g (both must be > 0)",
		e.PeriodDays, e.SharesPerPeriod)
}

func (e *InvalidPlanError) Is(target error) bool {
	return target == ErrInvalidPlan
}
