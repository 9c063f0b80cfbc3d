package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/chrissnell/lunarmansion/internal/conversion"
	"github.com/chrissnell/lunarmansion/internal/engine"
	"github.com/chrissnell/lunarmansion/pkg/ganzhi"
	"github.com/google/go-cmp/cmp"
)

type stubCalendar struct{}

func (stubCalendar) SolarToLunar(year, month, day int) (*conversion.LunarDate, error) {
	if year == 1955 {
		return nil, errors.New("lookup failed")
	}
	return &conversion.LunarDate{Year: 1990, Month: 4, Day: 21}, nil
}

func (stubCalendar) EightCharacters(year, month, day int) (*ganzhi.EightCharacters, error) {
	return &ganzhi.EightCharacters{{Stem: "庚", Branch: "午"}, {Stem: "辛", Branch: "巳"}, {Stem: "庚", Branch: "辰"}}, nil
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out, stubCalendar{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveJSON(t *testing.T) {
	out, err := run(t, "resolve", "1990-05-15", "--json", "--timezone", "0")
	if err != nil {
		t.Fatalf("resolve: %v\n%s", err, out)
	}
	var res engine.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	got := []any{res.BaZi, res.LunarMansion, res.Angle}
	want := []any{"GengWu XinSi GengChen", "The Winnowing Basket", 25.0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveText(t *testing.T) {
	out, err := run(t, "resolve", "1990-05-15", "--strategy", "modulo")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Lunar date:     1990-04-21", "GengWu XinSi GengChen", "Three Stars", "Angle:          145"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		partial bool
	}{
		{"bad format", []string{"resolve", "15/05/1990"}, false},
		{"february 30", []string{"resolve", "2024-02-30"}, false},
		{"conversion failure", []string{"resolve", "1955-07-07"}, true},
		{"unknown strategy", []string{"resolve", "1990-05-15", "--strategy", "lunar"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err == nil {
				t.Fatalf("expected an error, got output:\n%s", out)
			}
			if got := strings.Contains(out, "Lunar mansion:  Unknown"); got != tt.partial {
				t.Errorf("partial result printed = %t, want %t:\n%s", got, tt.partial, out)
			}
		})
	}
}

func TestRange(t *testing.T) {
	out, err := run(t, "range", "1990-02-27", "1990-03-02", "--concurrency", "2")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var dates []string
	for _, l := range lines {
		dates = append(dates, strings.Fields(l)[0])
	}
	want := []string{"1990-02-27", "1990-02-28", "1990-03-01", "1990-03-02"}
	if diff := cmp.Diff(want, dates); diff != "" {
		t.Errorf("range dates (-want +got):\n%s", diff)
	}
}

func TestRangeReportsFailuresPerDate(t *testing.T) {
	out, err := run(t, "range", "1955-01-01", "1955-01-02", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var rows []rangeRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	for _, r := range rows {
		if r.Kind != engine.KindConversionFailure || r.Result == nil || r.Result.LunarMansion != engine.UnknownValue {
			t.Errorf("row %+v", r)
		}
	}
}

func TestRangeBounds(t *testing.T) {
	if _, err := run(t, "range", "1990-05-15", "1990-05-14"); err == nil {
		t.Error("reversed range accepted")
	}
	if _, err := run(t, "range", "1900-01-01", "2025-12-31"); err == nil {
		t.Error("oversized range accepted")
	}
}

func TestMansionsAndFallback(t *testing.T) {
	out, err := run(t, "mansions")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Split(strings.TrimSpace(out), "\n")); n != 28 {
		t.Errorf("mansions printed %d lines", n)
	}

	out, err = run(t, "fallback", "1987-4-12")
	if err != nil {
		t.Fatal(err)
	}
	if want := "1987-04-12  14  The Legs\n"; out != want {
		t.Errorf("fallback = %q, want %q", out, want)
	}
}
