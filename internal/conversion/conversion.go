// Package conversion wraps the external solar-to-lunar calendar service. It applies the
// correction table, checks the eight-character record for completeness and reports
// failures as ConversionFailure or IncompletePillar errors.
package conversion

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrissnell/lunarmansion/pkg/calendar"
	"github.com/chrissnell/lunarmansion/pkg/ganzhi"
	"go.uber.org/zap"
)

var (
	// ErrConversionFailure means the lunar calendar returned nothing usable
	ErrConversionFailure = errors.New("conversion failure")
	// ErrIncompletePillar means a pillar came back without a stem or branch
	ErrIncompletePillar = errors.New("incomplete pillar")
)

// LunarDate is a date in the Chinese lunar calendar. Month is always positive;
// Leap marks an intercalary month.
type LunarDate struct {
	Year  int
	Month int
	Day   int
	Leap  bool
}

// String returns YYYY-MM-DD
func (d LunarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// LunarCalendar is the external calendar service. A nil result with a nil error is
// treated the same as an error: the conversion failed.
type LunarCalendar interface {
	SolarToLunar(year, month, day int) (*LunarDate, error)
	EightCharacters(year, month, day int) (*ganzhi.EightCharacters, error)
}

// Conversion is what the adapter hands to the rest of the pipeline
type Conversion struct {
	Solar     calendar.CalendarDate
	Lunar     LunarDate
	Corrected bool
	Pillars   ganzhi.EightCharacters
}

// Error describes a failed conversion. Index is the pillar position for
// IncompletePillar and -1 otherwise. Lunar is set when the lunar date was already
// known at the time of failure.
type Error struct {
	Kind  error
	Date  string
	Index int
	Lunar *LunarDate
	Err   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s for %s", e.Kind, e.Date)
	if errors.Is(e.Kind, ErrIncompletePillar) {
		msg = fmt.Sprintf("%s at index %d for %s", e.Kind, e.Index, e.Date)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Adapter delegates to a LunarCalendar after consulting the correction table
type Adapter struct {
	calendar    LunarCalendar
	corrections *CorrectionTable
	logger      *zap.SugaredLogger
}

// NewAdapter creates an adapter. A nil corrections table means DefaultCorrections.
func NewAdapter(cal LunarCalendar, corrections *CorrectionTable, logger *zap.SugaredLogger) *Adapter {
	if corrections == nil {
		corrections = DefaultCorrections()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Adapter{calendar: cal, corrections: corrections, logger: logger}
}

// Convert produces the lunar date and eight-character record for d. A correction table
// hit replaces the service's lunar year/month/day, but the pillars always come from the
// service run against the original solar date. Failures are not retried.
func (a *Adapter) Convert(ctx context.Context, d calendar.CalendarDate) (*Conversion, error) {
	conv := &Conversion{Solar: d}
	key := d.String()

	if lunar, ok := a.corrections.Lookup(d); ok {
		conv.Lunar = lunar
		conv.Corrected = true
		a.logger.Debugf("applied lunar date correction for %s: %s", key, lunar)
	} else {
		lunar, err := call(ctx, func() (*LunarDate, error) {
			return a.calendar.SolarToLunar(d.Year, d.Month, d.Day)
		})
		if err != nil || lunar == nil {
			if err == nil {
				err = errors.New("lunar calendar returned no date")
			}
			a.logger.Errorf("failed to convert solar date %s to lunar date: %v", key, err)
			return nil, &Error{Kind: ErrConversionFailure, Date: key, Index: -1, Err: err}
		}
		conv.Lunar = *lunar
	}
	a.logger.Debugf("solar to lunar success: solar=%s lunar=%s", key, conv.Lunar)

	known := conv.Lunar
	ec, err := call(ctx, func() (*ganzhi.EightCharacters, error) {
		return a.calendar.EightCharacters(d.Year, d.Month, d.Day)
	})
	if err != nil || ec == nil {
		if err == nil {
			err = errors.New("lunar calendar returned no eight characters")
		}
		a.logger.Errorf("failed to get eight characters for lunar date %s: %v", known, err)
		return nil, &Error{Kind: ErrConversionFailure, Date: key, Index: -1, Lunar: &known, Err: err}
	}

	for i, pair := range ec {
		if pair.Stem == "" || pair.Branch == "" {
			a.logger.Errorf("invalid eight characters component at index %d: stem=%q branch=%q", i, pair.Stem, pair.Branch)
			return nil, &Error{Kind: ErrIncompletePillar, Date: key, Index: i, Lunar: &known}
		}
	}
	conv.Pillars = *ec

	return conv, nil
}

// call runs fn under ctx. A panic inside the calendar library is reported as an error.
func call[T any](ctx context.Context, fn func() (*T, error)) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		v   *T
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("lunar calendar panicked: %v", r)}
			}
		}()
		v, err := fn()
		done <- result{v: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.v, r.err
	}
}
