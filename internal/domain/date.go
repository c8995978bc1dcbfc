package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateFormat is the ISO-8601 calendar date layout used for storage and the API.
const DateFormat = "2006-01-02"

// readDateFormat is permissive on read ("2025-7-1" is accepted).
const readDateFormat = "2006-1-2"

// Date is a calendar day with no time-of-day or time zone component.
//
// Every price bar is keyed by a Date. Bars coming from providers carry
// timestamps in the exchange time zone (or UTC for cached rows); they are
// collapsed to their calendar day exactly once, at ingestion, through DateOf.
// Dates are comparable with == and usable as map keys.
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date ("2024-01-32" becomes "2024-02-01").
func NewDate(year int, month time.Month, day int) Date {
	y, m, d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Date()
	return Date{y, m, d}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Date())
}

// DateFromUnix returns the UTC calendar day of a unix timestamp in seconds.
func DateFromUnix(sec int64) Date {
	return DateOf(time.Unix(sec, 0).UTC())
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(readDateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want format %q: %w", s, DateFormat, err)
	}
	return DateOf(t), nil
}

// MustParseDate is like ParseDate but panics on error. Intended for tests and constants.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// Today returns the current local calendar day.
func Today() Date { return DateOf(time.Now()) }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Unix returns the unix timestamp of midnight UTC, the storage representation.
func (d Date) Unix() int64 { return d.Time().Unix() }

// Year returns the year of the date.
func (d Date) Year() int { return d.y }

// Month returns the month of the date.
func (d Date) Month() time.Month { return d.m }

// Day returns the day of the month.
func (d Date) Day() int { return d.d }

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date { return NewDate(d.y, d.m, d.d+n) }

// DaysSince returns the number of calendar days from other to d.
func (d Date) DaysSince(other Date) int {
	return int(d.Time().Sub(other.Time()).Hours() / 24)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.y != other.y:
		return cmpInt(d.y, other.y)
	case d.m != other.m:
		return cmpInt(int(d.m), int(other.m))
	default:
		return cmpInt(d.d, other.d)
	}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.Time().Format(DateFormat) }

// MaxDate returns the later of two dates.
func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// MinDate returns the earlier of two dates.
func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// MarshalJSON encodes the date as a "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var _ json.Marshaler = Date{}
var _ json.Unmarshaler = (*Date)(nil)
var _ driver.Valuer = Date{}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Value stores the date as unix seconds of midnight UTC.
func (d Date) Value() (driver.Value, error) {
	return d.Unix(), nil
}

// Scan reads a date stored as unix seconds or as a YYYY-MM-DD string.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*d = DateFromUnix(v)
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
	case time.Time:
		*d = DateOf(v.UTC())
	case nil:
		*d = Date{}
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}
