// Package calendar validates Gregorian dates before any symbolic work is done on them.
// Year bounds are configuration; everything else follows the proleptic Gregorian rules.
package calendar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soniakeys/meeus/v3/julian"
)

// Default year bounds accepted by the validator
const (
	DefaultMinYear = 1900
	DefaultMaxYear = 2025
)

// Limits holds the inclusive year range accepted by a Validator
type Limits struct {
	MinYear int
	MaxYear int
}

// DefaultLimits returns the 1900-2025 range
func DefaultLimits() Limits {
	return Limits{MinYear: DefaultMinYear, MaxYear: DefaultMaxYear}
}

// CalendarDate is a validated Gregorian date with an optional clock time.
// Hour and Minute are accepted for forward compatibility and never affect output.
type CalendarDate struct {
	Year   int
	Month  int
	Day    int
	Hour   *int
	Minute *int
}

// NewDate builds a CalendarDate without a clock time. It does not validate.
func NewDate(year, month, day int) CalendarDate {
	return CalendarDate{Year: year, Month: month, Day: day}
}

// String returns the zero-padded YYYY-MM-DD form
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// RawDate carries the unparsed fields as received from a transport.
// An empty string means the field was not supplied.
type RawDate struct {
	Year   string
	Month  string
	Day    string
	Hour   string
	Minute string
}

// Validator turns raw input into a CalendarDate
type Validator struct {
	limits Limits
}

// NewValidator creates a validator for the given year bounds. Zero bounds fall back to the defaults.
func NewValidator(limits Limits) *Validator {
	if limits.MinYear == 0 {
		limits.MinYear = DefaultMinYear
	}
	if limits.MaxYear == 0 {
		limits.MaxYear = DefaultMaxYear
	}
	return &Validator{limits: limits}
}

// Limits returns the year bounds in effect
func (v *Validator) Limits() Limits {
	return v.limits
}

// Validate parses and checks raw input. Rules are applied in order: required fields,
// year range, month range, day range, real calendar date, then hour and minute.
func (v *Validator) Validate(raw RawDate) (CalendarDate, error) {
	for _, f := range []struct {
		name  Field
		value string
	}{
		{FieldYear, raw.Year},
		{FieldMonth, raw.Month},
		{FieldDay, raw.Day},
	} {
		if strings.TrimSpace(f.value) == "" {
			return CalendarDate{}, missing(f.name)
		}
	}

	// each field is range checked before the next is parsed, so the first bad field is reported
	year, err := parseInt(FieldYear, raw.Year)
	if err != nil {
		return CalendarDate{}, err
	}
	if year < v.limits.MinYear || year > v.limits.MaxYear {
		return CalendarDate{}, outOfRange(FieldYear, year, v.limits.MinYear, v.limits.MaxYear)
	}
	month, err := parseInt(FieldMonth, raw.Month)
	if err != nil {
		return CalendarDate{}, err
	}
	if month < 1 || month > 12 {
		return CalendarDate{}, outOfRange(FieldMonth, month, 1, 12)
	}
	day, err := parseInt(FieldDay, raw.Day)
	if err != nil {
		return CalendarDate{}, err
	}

	date := CalendarDate{Year: year, Month: month, Day: day}
	if err := v.Check(date); err != nil {
		return CalendarDate{}, err
	}

	// The clock time is only looked at once the date itself is known to be good
	if raw.Hour != "" {
		hour, err := parseInt(FieldHour, raw.Hour)
		if err != nil {
			return CalendarDate{}, err
		}
		date.Hour = &hour
	}
	if raw.Minute != "" {
		minute, err := parseInt(FieldMinute, raw.Minute)
		if err != nil {
			return CalendarDate{}, err
		}
		date.Minute = &minute
	}
	if err := v.Check(date); err != nil {
		return CalendarDate{}, err
	}

	return date, nil
}

// Check applies the range and calendar rules to an already-built date
func (v *Validator) Check(d CalendarDate) error {
	if d.Year < v.limits.MinYear || d.Year > v.limits.MaxYear {
		return outOfRange(FieldYear, d.Year, v.limits.MinYear, v.limits.MaxYear)
	}
	if d.Month < 1 || d.Month > 12 {
		return outOfRange(FieldMonth, d.Month, 1, 12)
	}
	if d.Day < 1 || d.Day > 31 {
		return outOfRange(FieldDay, d.Day, 1, 31)
	}
	if !IsValidDate(d.Year, d.Month, d.Day) {
		return &ValidationError{
			Kind:  ErrInvalidCalendarDate,
			Field: FieldDay,
			Msg:   fmt.Sprintf("%s does not exist (month %d has %d days)", d, d.Month, DaysInMonth(d.Year, d.Month)),
		}
	}
	if d.Hour != nil && (*d.Hour < 0 || *d.Hour > 23) {
		return outOfRange(FieldHour, *d.Hour, 0, 23)
	}
	if d.Minute != nil && (*d.Minute < 0 || *d.Minute > 59) {
		return outOfRange(FieldMinute, *d.Minute, 0, 59)
	}
	return nil
}

// IsLeapYear reports whether year is a Gregorian leap year
func IsLeapYear(year int) bool {
	return julian.LeapYearGregorian(year)
}

// DaysInMonth returns the number of days in month of year, or 0 for an invalid month
func DaysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 0
	}
}

// IsValidDate reports whether year-month-day names a real Gregorian date
func IsValidDate(year, month, day int) bool {
	return day >= 1 && day <= DaysInMonth(year, month)
}

func parseInt(field Field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &ValidationError{
			Kind:  ErrOutOfRange,
			Field: field,
			Msg:   fmt.Sprintf("%q is not an integer", s),
		}
	}
	return n, nil
}
