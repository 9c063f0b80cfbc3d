package restserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/lunarmansion/internal/conversion"
	"github.com/chrissnell/lunarmansion/internal/engine"
	"github.com/chrissnell/lunarmansion/internal/resolver"
	"github.com/chrissnell/lunarmansion/internal/storage/memory"
	"github.com/chrissnell/lunarmansion/pkg/config"
	"github.com/chrissnell/lunarmansion/pkg/ganzhi"
	"github.com/chrissnell/lunarmansion/pkg/mansion"
	"github.com/chrissnell/lunarmansion/pkg/responseformat"
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

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	e, err := engine.New(engine.DefaultConfig(), stubCalendar{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	r := resolver.New(e, memory.New(), time.Second, nil)
	t.Cleanup(func() { r.Close() })

	ctrl, err := NewController(context.Background(), &sync.WaitGroup{}, r, config.ServerData{Port: 8080}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return ctrl.Handler()
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))
	return rr
}

func TestCalculate(t *testing.T) {
	h := newTestHandler(t)

	rr := get(t, h, "/calculate?year=1990&month=5&day=15&hour=10&minute=30&timezone=8")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id")
	}

	var res engine.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	got := map[string]any{
		"lunar_date":    res.LunarDate,
		"bazi":          res.BaZi,
		"lunar_mansion": res.LunarMansion,
		"angle":         res.Angle,
	}
	want := map[string]any{
		"lunar_date":    "1990-04-21",
		"bazi":          "GengWu XinSi GengChen",
		"lunar_mansion": "The Winnowing Basket",
		"angle":         145.0,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculateMsgPack(t *testing.T) {
	h := newTestHandler(t)

	rr := get(t, h, "/calculate?year=1990&month=5&day=15&format=msgpack")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != responseformat.ContentTypeMsgPack {
		t.Errorf("Content-Type = %q", ct)
	}
	var res engine.Result
	if err := responseformat.UnmarshalMsgPack(rr.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Angle != 145 || res.LunarMansion != "The Winnowing Basket" {
		t.Errorf("decoded %+v", res)
	}
}

func TestCalculateErrors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name    string
		url     string
		kind    engine.Kind
		partial bool
	}{
		{"missing day", "/calculate?year=1990&month=5", engine.KindMissingField, false},
		{"year out of range", "/calculate?year=2026&month=5&day=15", engine.KindOutOfRange, false},
		{"bad hour", "/calculate?year=1990&month=5&day=15&hour=24", engine.KindOutOfRange, false},
		{"february 30", "/calculate?year=2024&month=2&day=30", engine.KindInvalidCalendarDate, false},
		{"conversion failure", "/calculate?year=1955&month=7&day=7", engine.KindConversionFailure, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, h, tt.url)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}

			var body map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["error"] == "" || body["error_kind"] != string(tt.kind) {
				t.Errorf("body = %v, want kind %s", body, tt.kind)
			}

			_, hasPartial := body["lunar_mansion"]
			if hasPartial != tt.partial {
				t.Errorf("partial fields present = %t, want %t", hasPartial, tt.partial)
			}
			if tt.partial {
				if body["lunar_mansion"] != "Unknown" || body["bazi"] != "Unknown" || body["angle"] != 0.0 ||
					body["lunar_mansion_description"] != engine.UnknownDescription {
					t.Errorf("unexpected partial body %v", body)
				}
			}
		})
	}
}

func TestHealthAndMansions(t *testing.T) {
	h := newTestHandler(t)

	rr := get(t, h, "/health")
	if rr.Code != http.StatusOK || rr.Body.String() != "{\"status\":\"ok\"}\n" {
		t.Errorf("/health = %d %q", rr.Code, rr.Body)
	}

	rr = get(t, h, "/mansions")
	var ms []mansion.Mansion
	if err := json.Unmarshal(rr.Body.Bytes(), &ms); err != nil {
		t.Fatal(err)
	}
	if len(ms) != mansion.Count || ms[0].Label != "The Horn" || ms[0].Native != "角" {
		t.Errorf("/mansions returned %d entries starting %+v", len(ms), ms[0])
	}
}

func TestStats(t *testing.T) {
	h := newTestHandler(t)
	get(t, h, "/calculate?year=1990&month=5&day=15")
	get(t, h, "/calculate?year=1990&month=5&day=15")

	var s resolver.Stats
	if err := json.Unmarshal(get(t, h, "/stats").Body.Bytes(), &s); err != nil {
		t.Fatal(err)
	}
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestRouting(t *testing.T) {
	h := newTestHandler(t)

	if rr := get(t, h, "/nope"); rr.Code != http.StatusNotFound || rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("unknown path = %d, headers %v", rr.Code, rr.Header())
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/calculate", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /calculate = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/calculate", nil))
	if rr.Code != http.StatusNoContent || rr.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Errorf("preflight = %d, headers %v", rr.Code, rr.Header())
	}
}
