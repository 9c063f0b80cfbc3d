// Package engine runs the resolution pipeline: validate, convert (with corrections),
// resolve pillars, then resolve the mansion and the angle and assemble the result.
// An Engine holds no mutable state and is safe for concurrent use.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/chrissnell/lunarmansion/internal/conversion"
	"github.com/chrissnell/lunarmansion/pkg/angle"
	"github.com/chrissnell/lunarmansion/pkg/calendar"
	"github.com/chrissnell/lunarmansion/pkg/ganzhi"
	"github.com/chrissnell/lunarmansion/pkg/mansion"
	"go.uber.org/zap"
)

// Placeholder values used in partial results
const (
	UnknownValue       = "Unknown"
	UnknownDescription = "Could not calculate lunar mansion for this date."
)

// Result is the full symbolic reading for a date
type Result struct {
	SolarDate               string          `json:"solar_date"`
	LunarDate               string          `json:"lunar_date"`
	LunarLeapMonth          bool            `json:"lunar_leap_month"`
	LunarCorrected          bool            `json:"lunar_corrected"`
	BaZi                    string          `json:"bazi"`
	Pillars                 []ganzhi.Pillar `json:"pillars,omitempty"`
	DayMaster               string          `json:"day_master"`
	Element                 ganzhi.Element  `json:"element"`
	LunarMansion            string          `json:"lunar_mansion"`
	LunarMansionNative      string          `json:"lunar_mansion_native,omitempty"`
	LunarMansionDescription string          `json:"lunar_mansion_description"`
	MansionStrategy         string          `json:"mansion_strategy"`
	MansionFallback         bool            `json:"mansion_fallback"`
	BaseAngle               float64         `json:"base_angle"`
	JoyDirection            string          `json:"joy_direction,omitempty"`
	Timezone                float64         `json:"timezone"`
	Angle                   float64         `json:"angle"`
	Warnings                []string        `json:"warnings,omitempty"`
}

// RawRequest is a request as received from a transport, before any parsing
type RawRequest struct {
	calendar.RawDate
	Timezone string
}

// Engine resolves dates into Results
type Engine struct {
	cfg       Config
	validator *calendar.Validator
	adapter   *conversion.Adapter
	pillars   ganzhi.Resolver
	mansions  *mansion.Resolver
	angles    *angle.Resolver
	logger    *zap.SugaredLogger
}

// New creates an engine backed by the given lunar calendar
func New(cfg Config, cal conversion.LunarCalendar, logger *zap.SugaredLogger) (*Engine, error) {
	if cal == nil {
		return nil, fmt.Errorf("a lunar calendar is required")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	mansions, err := mansion.NewResolver(cfg.MansionStrategy)
	if err != nil {
		return nil, err
	}

	validator := calendar.NewValidator(cfg.Limits)
	cfg.Limits = validator.Limits()
	cfg.MansionStrategy = mansions.Strategy()

	return &Engine{
		cfg:       cfg,
		validator: validator,
		adapter:   conversion.NewAdapter(cal, cfg.Corrections, logger),
		pillars:   ganzhi.Resolver{Strict: cfg.StrictComponents},
		mansions:  mansions,
		angles:    angle.NewResolver(cfg.MetalAngle, cfg.Jitter),
		logger:    logger,
	}, nil
}

// Config returns the effective configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Request is a validated request ready for Resolve
type Request struct {
	Date     calendar.CalendarDate
	Offset   float64
	Warnings []string
}

// Prepare validates transport input. An unparseable timezone is not an error:
// the benchmark offset is used and a warning is recorded.
func (e *Engine) Prepare(req RawRequest) (Request, error) {
	e.logger.Debugf("resolve request: year=%s month=%s day=%s hour=%s minute=%s timezone=%s",
		req.Year, req.Month, req.Day, req.Hour, req.Minute, req.Timezone)

	date, err := e.validator.Validate(req.RawDate)
	if err != nil {
		e.logger.Debugf("parameter error: %v", err)
		return Request{}, err
	}

	prepared := Request{Date: date}
	offset, err := angle.ParseOffset(req.Timezone)
	if err != nil {
		e.logger.Warnf("timezone adjustment failed, using UTC+%g: %v", angle.BenchmarkOffset, err)
		prepared.Warnings = append(prepared.Warnings, fmt.Sprintf("%s: %v", KindTimezoneParseFailure, err))
	}
	prepared.Offset = offset
	return prepared, nil
}

// ResolveRaw validates transport input and resolves it
func (e *Engine) ResolveRaw(ctx context.Context, req RawRequest) (*Result, error) {
	prepared, err := e.Prepare(req)
	if err != nil {
		return nil, err
	}
	res, err := e.Resolve(ctx, prepared.Date, prepared.Offset)
	if res != nil && len(prepared.Warnings) > 0 {
		res.Warnings = append(res.Warnings, prepared.Warnings...)
	}
	return res, err
}

// Resolve runs the pipeline for a date and UTC offset in hours. Validation errors
// return a nil Result. Conversion and pillar errors return a partial Result with
// placeholder fields alongside the error. A non-finite offset is replaced by the
// benchmark offset and reported as a warning.
func (e *Engine) Resolve(ctx context.Context, date calendar.CalendarDate, offset float64) (*Result, error) {
	var warning string
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		e.logger.Warnf("timezone adjustment failed, using UTC+%g: offset %v is not finite", angle.BenchmarkOffset, offset)
		warning = fmt.Sprintf("%s: %v: %v", KindTimezoneParseFailure, angle.ErrTimezoneParse, offset)
		offset = angle.BenchmarkOffset
	}

	res, err := e.resolve(ctx, date, offset)
	if res != nil && warning != "" {
		res.Warnings = append(res.Warnings, warning)
	}
	return res, err
}

func (e *Engine) resolve(ctx context.Context, date calendar.CalendarDate, offset float64) (*Result, error) {
	if err := e.validator.Check(date); err != nil {
		e.logger.Debugf("parameter error: %v", err)
		return nil, err
	}
	key := date.String()

	conv, err := e.adapter.Convert(ctx, date)
	if err != nil {
		var cerr *conversion.Error
		if errors.As(err, &cerr) {
			return partialResult(key, offset, cerr.Lunar), err
		}
		return partialResult(key, offset, nil), err
	}

	bazi, err := e.pillars.Resolve(conv.Pillars)
	if err != nil {
		e.logger.Errorf("invalid eight characters for %s: %v", key, err)
		return partialResult(key, offset, &conv.Lunar), err
	}
	e.logger.Debugf("bazi generated for %s: %s", key, bazi)

	outcome := e.mansions.Resolve(mansion.Input{
		SolarYear:  date.Year,
		SolarMonth: date.Month,
		SolarDay:   date.Day,
		LunarDay:   conv.Lunar.Day,
	})
	if outcome.Fallback {
		e.logger.Warnf("using fallback mansion for %s: %s (%s)", key, outcome.Mansion.Label, outcome.Reason)
	}

	element := bazi.DayMaster()
	a := e.angles.Resolve(element, offset, key)

	pillars := make([]ganzhi.Pillar, len(bazi))
	copy(pillars, bazi[:])

	res := &Result{
		SolarDate:               key,
		LunarDate:               conv.Lunar.String(),
		LunarLeapMonth:          conv.Lunar.Leap,
		LunarCorrected:          conv.Corrected,
		BaZi:                    bazi.String(),
		Pillars:                 pillars,
		DayMaster:               bazi[ganzhi.Day].StemLabel,
		Element:                 element,
		LunarMansion:            outcome.Mansion.Label,
		LunarMansionNative:      outcome.Mansion.Native,
		LunarMansionDescription: outcome.Mansion.Description,
		MansionStrategy:         outcome.Strategy,
		MansionFallback:         outcome.Fallback,
		BaseAngle:               a.Base,
		JoyDirection:            a.Joy,
		Timezone:                offset,
		Angle:                   a.Angle,
	}

	e.logger.Debugf("result for %s: day_master=%s element=%s original_angle=%g adjusted_angle=%g lunar_mansion=%s",
		key, res.DayMaster, element, a.Base, a.Angle, res.LunarMansion)

	return res, nil
}

func partialResult(solar string, offset float64, lunar *conversion.LunarDate) *Result {
	res := &Result{
		SolarDate:               solar,
		LunarDate:               UnknownValue,
		BaZi:                    UnknownValue,
		DayMaster:               UnknownValue,
		Element:                 ganzhi.Unknown,
		LunarMansion:            UnknownValue,
		LunarMansionDescription: UnknownDescription,
		Timezone:                offset,
		Angle:                   0,
	}
	if lunar != nil {
		res.LunarDate = lunar.String()
		res.LunarLeapMonth = lunar.Leap
	}
	return res
}

// Clone returns a deep copy of r
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	c := *r
	if r.Pillars != nil {
		c.Pillars = append([]ganzhi.Pillar(nil), r.Pillars...)
	}
	if r.Warnings != nil {
		c.Warnings = append([]string(nil), r.Warnings...)
	}
	return &c
}
