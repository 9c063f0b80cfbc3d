package calendar

import (
	"errors"
	"fmt"
)

// Field names the input field a ValidationError refers to
type Field string

const (
	FieldYear   Field = "year"
	FieldMonth  Field = "month"
	FieldDay    Field = "day"
	FieldHour   Field = "hour"
	FieldMinute Field = "minute"
)

var (
	// ErrMissingField is returned when year, month or day is absent
	ErrMissingField = errors.New("missing field")
	// ErrOutOfRange is returned when a field is not an integer or lies outside its range
	ErrOutOfRange = errors.New("out of range")
	// ErrInvalidCalendarDate is returned for dates such as Feb 30 or Apr 31
	ErrInvalidCalendarDate = errors.New("invalid calendar date")
)

// ValidationError describes why an input date was rejected.
// It unwraps to one of the Err* sentinels above.
type ValidationError struct {
	Kind  error
	Field Field
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func missing(field Field) error {
	return &ValidationError{
		Kind:  ErrMissingField,
		Field: field,
		Msg:   "year, month, or day cannot be empty",
	}
}

func outOfRange(field Field, value, lo, hi int) error {
	return &ValidationError{
		Kind:  ErrOutOfRange,
		Field: field,
		Msg:   fmt.Sprintf("%d is not between %d and %d", value, lo, hi),
	}
}
