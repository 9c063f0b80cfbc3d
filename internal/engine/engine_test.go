package engine

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/chrissnell/lunarmansion/internal/conversion"
	"github.com/chrissnell/lunarmansion/pkg/angle"
	"github.com/chrissnell/lunarmansion/pkg/calendar"
	"github.com/chrissnell/lunarmansion/pkg/ganzhi"
	"github.com/chrissnell/lunarmansion/pkg/mansion"
	"github.com/google/go-cmp/cmp"
)

type fakeCalendar struct {
	mu      sync.Mutex
	lunar   map[string]*conversion.LunarDate
	pillars map[string]*ganzhi.EightCharacters
	calls   int
}

func (f *fakeCalendar) key(y, m, d int) string {
	return calendar.NewDate(y, m, d).String()
}

func (f *fakeCalendar) SolarToLunar(year, month, day int) (*conversion.LunarDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if l, ok := f.lunar[f.key(year, month, day)]; ok {
		return l, nil
	}
	return nil, errors.New("no such date")
}

func (f *fakeCalendar) EightCharacters(year, month, day int) (*ganzhi.EightCharacters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if p, ok := f.pillars[f.key(year, month, day)]; ok {
		return p, nil
	}
	return nil, nil
}

func (f *fakeCalendar) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newFake() *fakeCalendar {
	return &fakeCalendar{
		lunar: map[string]*conversion.LunarDate{
			"1990-05-15": {Year: 1990, Month: 4, Day: 21},
			"2000-01-01": {Year: 1999, Month: 11, Day: 25},
			"2023-06-01": {Year: 2023, Month: 4, Day: 14},
		},
		pillars: map[string]*ganzhi.EightCharacters{
			"1990-05-15": {{Stem: "庚", Branch: "午"}, {Stem: "辛", Branch: "巳"}, {Stem: "庚", Branch: "辰"}},
			"2000-01-01": {{Stem: "己", Branch: "卯"}, {Stem: "丙", Branch: "子"}, {Stem: "戊", Branch: "午"}},
			"1976-12-03": {{Stem: "丙", Branch: "辰"}, {Stem: "己", Branch: "亥"}, {Stem: "甲", Branch: "子"}},
			"2023-06-01": {{Stem: "癸", Branch: "卯"}, {Stem: "丁", Branch: "巳"}, {Stem: "X", Branch: "?"}},
		},
	}
}

func newEngine(t *testing.T, cfg Config, cal conversion.LunarCalendar) *Engine {
	t.Helper()
	e, err := New(cfg, cal, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestResolveReferenceDate(t *testing.T) {
	e := newEngine(t, DefaultConfig(), newFake())

	res, err := e.Resolve(context.Background(), calendar.NewDate(1990, 5, 15), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := struct {
		Lunar, BaZi, DayMaster, Mansion, Strategy string
		Element                                   ganzhi.Element
		Angle                                     float64
	}{
		Lunar:     "1990-04-21",
		BaZi:      "GengWu XinSi GengChen",
		DayMaster: "Geng",
		Mansion:   "The Winnowing Basket",
		Strategy:  mansion.StrategyTable,
		Element:   ganzhi.Metal,
		Angle:     145,
	}
	got := struct {
		Lunar, BaZi, DayMaster, Mansion, Strategy string
		Element                                   ganzhi.Element
		Angle                                     float64
	}{res.LunarDate, res.BaZi, res.DayMaster, res.LunarMansion, res.MansionStrategy, res.Element, res.Angle}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if res.MansionFallback {
		t.Error("reference date should not use the fallback")
	}
	if res.LunarMansionDescription != mansion.Describe("The Winnowing Basket") {
		t.Errorf("description = %q", res.LunarMansionDescription)
	}
	if len(res.Pillars) != 3 {
		t.Errorf("got %d pillars, want 3", len(res.Pillars))
	}
}

func TestResolveStrategies(t *testing.T) {
	tests := []struct {
		strategy string
		want     string
	}{
		{mansion.StrategyModulo, "The Three Stars"},
		{mansion.StrategyTable, "The Winnowing Basket"},
		{mansion.StrategySolarTable, "The Horn"},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MansionStrategy = tt.strategy
			e := newEngine(t, cfg, newFake())

			res, err := e.Resolve(context.Background(), calendar.NewDate(1990, 5, 15), 8)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.LunarMansion != tt.want {
				t.Errorf("LunarMansion = %q, want %q", res.LunarMansion, tt.want)
			}
			if res.MansionStrategy != tt.strategy {
				t.Errorf("MansionStrategy = %q, want %q", res.MansionStrategy, tt.strategy)
			}
		})
	}
}

func TestResolveTimezone(t *testing.T) {
	e := newEngine(t, DefaultConfig(), newFake())

	tests := []struct {
		offset float64
		want   float64
	}{
		{8, 145},
		{0, 25},
		{-5, 310},
		{5.5, 107.5},
		{12, 205},
	}

	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.offset, 'f', -1, 64), func(t *testing.T) {
			res, err := e.Resolve(context.Background(), calendar.NewDate(1990, 5, 15), tt.offset)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Angle != tt.want {
				t.Errorf("Angle = %v, want %v", res.Angle, tt.want)
			}
			if res.Angle < 0 || res.Angle >= 360 {
				t.Errorf("Angle %v outside [0,360)", res.Angle)
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Jitter = angle.Jitter{Enabled: true, Seed: 42, Spread: 10}
	e := newEngine(t, cfg, newFake())

	first, err := e.Resolve(context.Background(), calendar.NewDate(1990, 5, 15), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.Resolve(context.Background(), calendar.NewDate(1990, 5, 15), 8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
	if first.Angle < 135 || first.Angle > 155 {
		t.Errorf("jittered angle %v is more than 10 degrees from 145", first.Angle)
	}
}

func TestResolveRawValidation(t *testing.T) {
	cal := newFake()
	e := newEngine(t, DefaultConfig(), cal)

	tests := []struct {
		name string
		raw  calendar.RawDate
		kind Kind
	}{
		{"missing day", calendar.RawDate{Year: "1990", Month: "5"}, KindMissingField},
		{"year too early", calendar.RawDate{Year: "1899", Month: "5", Day: "15"}, KindOutOfRange},
		{"month 13", calendar.RawDate{Year: "1990", Month: "13", Day: "15"}, KindOutOfRange},
		{"not a number", calendar.RawDate{Year: "nineteen", Month: "5", Day: "15"}, KindOutOfRange},
		{"february 30", calendar.RawDate{Year: "2024", Month: "2", Day: "30"}, KindInvalidCalendarDate},
		{"april 31", calendar.RawDate{Year: "2023", Month: "4", Day: "31"}, KindInvalidCalendarDate},
		{"february 29 in common year", calendar.RawDate{Year: "2023", Month: "2", Day: "29"}, KindInvalidCalendarDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.ResolveRaw(context.Background(), RawRequest{RawDate: tt.raw})
			if err == nil {
				t.Fatal("expected an error")
			}
			if res != nil {
				t.Errorf("validation errors must not return a result, got %+v", res)
			}
			if got := KindOf(err); got != tt.kind {
				t.Errorf("KindOf = %s, want %s", got, tt.kind)
			}
			if !IsValidation(err) {
				t.Errorf("IsValidation(%v) = false", err)
			}
		})
	}

	if n := cal.callCount(); n != 0 {
		t.Errorf("lunar calendar called %d times for invalid input", n)
	}
}

func TestResolveRawTimezoneWarning(t *testing.T) {
	e := newEngine(t, DefaultConfig(), newFake())

	res, err := e.ResolveRaw(context.Background(), RawRequest{
		RawDate:  calendar.RawDate{Year: "1990", Month: "5", Day: "15"},
		Timezone: "east",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Timezone != angle.BenchmarkOffset || res.Angle != 145 {
		t.Errorf("bad timezone should fall back to UTC+8, got tz=%v angle=%v", res.Timezone, res.Angle)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", res.Warnings)
	}
}

func TestResolveNonFiniteOffset(t *testing.T) {
	e := newEngine(t, DefaultConfig(), newFake())

	for _, offset := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		t.Run(strconv.FormatFloat(offset, 'g', -1, 64), func(t *testing.T) {
			res, err := e.Resolve(context.Background(), calendar.NewDate(1990, 5, 15), offset)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Timezone != angle.BenchmarkOffset || res.Angle != 145 {
				t.Errorf("got tz=%v angle=%v, want UTC+8 and 145", res.Timezone, res.Angle)
			}
			if len(res.Warnings) != 1 || !strings.HasPrefix(res.Warnings[0], string(KindTimezoneParseFailure)) {
				t.Errorf("warnings = %v", res.Warnings)
			}
			if _, err := json.Marshal(res); err != nil {
				t.Errorf("result does not serialize: %v", err)
			}
		})
	}

	// partial results carry the substituted offset too
	res, err := e.Resolve(context.Background(), calendar.NewDate(1955, 7, 7), math.NaN())
	if KindOf(err) != KindConversionFailure || res == nil || res.Timezone != angle.BenchmarkOffset || len(res.Warnings) != 1 {
		t.Errorf("partial result = %+v, err %v", res, err)
	}
}

func TestResolveConversionFailure(t *testing.T) {
	e := newEngine(t, DefaultConfig(), newFake())

	res, err := e.Resolve(context.Background(), calendar.NewDate(1955, 7, 7), 8)
	if KindOf(err) != KindConversionFailure {
		t.Fatalf("KindOf = %s, want %s (err %v)", KindOf(err), KindConversionFailure, err)
	}
	if res == nil {
		t.Fatal("conversion failures return a partial result")
	}

	want := &Result{
		SolarDate:               "1955-07-07",
		LunarDate:               UnknownValue,
		BaZi:                    UnknownValue,
		DayMaster:               UnknownValue,
		Element:                 ganzhi.Unknown,
		LunarMansion:            UnknownValue,
		LunarMansionDescription: UnknownDescription,
		Timezone:                8,
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("partial result mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveMissingPillarsKeepsLunarDate(t *testing.T) {
	cal := newFake()
	cal.lunar["2001-03-03"] = &conversion.LunarDate{Year: 2001, Month: 2, Day: 9}
	e := newEngine(t, DefaultConfig(), cal)

	res, err := e.Resolve(context.Background(), calendar.NewDate(2001, 3, 3), 8)
	if KindOf(err) != KindConversionFailure {
		t.Fatalf("KindOf = %s, want %s", KindOf(err), KindConversionFailure)
	}
	if res.LunarDate != "2001-02-09" {
		t.Errorf("LunarDate = %q, want the known lunar date", res.LunarDate)
	}
	if res.BaZi != UnknownValue || res.Angle != 0 {
		t.Errorf("unexpected partial result %+v", res)
	}
}

func TestResolveCorrection(t *testing.T) {
	cal := newFake()
	e := newEngine(t, DefaultConfig(), cal)

	res, err := e.Resolve(context.Background(), calendar.NewDate(1976, 12, 3), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.LunarDate != "1976-11-03" || !res.LunarCorrected {
		t.Errorf("LunarDate = %q corrected=%t, want 1976-11-03 corrected", res.LunarDate, res.LunarCorrected)
	}
	if res.BaZi != "BingChen JiHai JiaZi" {
		t.Errorf("BaZi = %q", res.BaZi)
	}
	if res.Element != ganzhi.Wood || res.Angle != 0 {
		t.Errorf("Element = %s Angle = %v, want Wood 0", res.Element, res.Angle)
	}
	// corrected date skips SolarToLunar but still fetches pillars
	if n := cal.callCount(); n != 1 {
		t.Errorf("lunar calendar called %d times, want 1", n)
	}
}

func TestResolveComponentPolicy(t *testing.T) {
	t.Run("lenient", func(t *testing.T) {
		e := newEngine(t, DefaultConfig(), newFake())
		res, err := e.Resolve(context.Background(), calendar.NewDate(2023, 6, 1), 8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.BaZi != "GuiMao DingSi UnknownUnknown" {
			t.Errorf("BaZi = %q", res.BaZi)
		}
		if res.Element != ganzhi.Unknown || res.Angle != 0 {
			t.Errorf("Element = %s Angle = %v, want Unknown 0", res.Element, res.Angle)
		}
	})

	t.Run("strict", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.StrictComponents = true
		e := newEngine(t, cfg, newFake())
		res, err := e.Resolve(context.Background(), calendar.NewDate(2023, 6, 1), 8)
		if KindOf(err) != KindInvalidPillarComponent {
			t.Fatalf("KindOf = %s, want %s", KindOf(err), KindInvalidPillarComponent)
		}
		var cerr *ganzhi.ComponentError
		if !errors.As(err, &cerr) || cerr.Index != ganzhi.Day || cerr.Component != "stem" {
			t.Errorf("unexpected component error %v", err)
		}
		if res == nil || res.LunarDate != "2023-04-14" || res.LunarMansion != UnknownValue {
			t.Errorf("unexpected partial result %+v", res)
		}
	})
}

func TestResolveConcurrent(t *testing.T) {
	e := newEngine(t, DefaultConfig(), newFake())
	want, err := e.Resolve(context.Background(), calendar.NewDate(2000, 1, 1), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want.Element != ganzhi.Earth || want.Angle != 180 {
		t.Errorf("2000-01-01 Element = %s Angle = %v, want Earth 180", want.Element, want.Angle)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Resolve(context.Background(), calendar.NewDate(2000, 1, 1), 8)
			if err != nil {
				errs <- err.Error()
				return
			}
			if diff := cmp.Diff(want, got); diff != "" {
				errs <- diff
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}

func TestNewRejectsUnknownStrategy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MansionStrategy = "astrolabe"
	if _, err := New(cfg, newFake(), nil); err == nil {
		t.Error("expected an error for an unknown strategy")
	}
	if _, err := New(DefaultConfig(), nil, nil); err == nil {
		t.Error("expected an error for a nil calendar")
	}
}

func TestFingerprint(t *testing.T) {
	base := DefaultConfig()
	modulo := DefaultConfig()
	modulo.MansionStrategy = mansion.StrategyModulo
	jitter := DefaultConfig()
	jitter.Jitter = angle.Jitter{Enabled: true, Seed: 1, Spread: 10}

	if base.Fingerprint() == modulo.Fingerprint() {
		t.Error("strategy must change the fingerprint")
	}
	if base.Fingerprint() == jitter.Fingerprint() {
		t.Error("jitter must change the fingerprint")
	}
	custom := DefaultConfig()
	custom.Corrections = conversion.NewCorrectionTable(conversion.Correction{
		Solar: calendar.NewDate(1984, 2, 2),
		Lunar: conversion.LunarDate{Year: 1984, Month: 1, Day: 1},
	})
	if base.Fingerprint() == custom.Fingerprint() {
		t.Error("a different correction table of the same size must change the fingerprint")
	}
	if base.Fingerprint() != (Config{}).Fingerprint() {
		t.Errorf("zero config should fingerprint like the defaults: %q vs %q", base.Fingerprint(), (Config{}).Fingerprint())
	}
}
