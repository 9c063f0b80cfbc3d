package engine

import (
	"errors"

	"github.com/chrissnell/lunarmansion/internal/conversion"
	"github.com/chrissnell/lunarmansion/pkg/angle"
	"github.com/chrissnell/lunarmansion/pkg/calendar"
	"github.com/chrissnell/lunarmansion/pkg/ganzhi"
)

// Kind classifies engine errors for transports
type Kind string

const (
	KindNone                   Kind = ""
	KindMissingField           Kind = "MissingField"
	KindOutOfRange             Kind = "OutOfRange"
	KindInvalidCalendarDate    Kind = "InvalidCalendarDate"
	KindConversionFailure      Kind = "ConversionFailure"
	KindIncompletePillar       Kind = "IncompletePillar"
	KindInvalidPillarComponent Kind = "InvalidPillarComponent"
	KindTimezoneParseFailure   Kind = "TimezoneParseFailure"
	KindInternal               Kind = "Internal"
)

var kinds = []struct {
	sentinel error
	kind     Kind
}{
	{calendar.ErrMissingField, KindMissingField},
	{calendar.ErrOutOfRange, KindOutOfRange},
	{calendar.ErrInvalidCalendarDate, KindInvalidCalendarDate},
	{conversion.ErrIncompletePillar, KindIncompletePillar},
	{conversion.ErrConversionFailure, KindConversionFailure},
	{ganzhi.ErrInvalidPillarComponent, KindInvalidPillarComponent},
	{angle.ErrTimezoneParse, KindTimezoneParseFailure},
}

// KindOf maps err onto the error taxonomy
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}
	return KindInternal
}

// IsValidation reports whether err was raised by the date validator.
// Validation errors never come with a partial result.
func IsValidation(err error) bool {
	var verr *calendar.ValidationError
	return errors.As(err, &verr)
}
