package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type payload struct {
	Name  string  `json:"lunar_mansion"`
	Angle float64 `json:"angle"`
	Skip  string  `json:"skip,omitempty"`
}

func TestWriteStatus(t *testing.T) {
	f := NewFormatter()
	data := payload{Name: "The Legs", Angle: 145}

	tests := []struct {
		name        string
		url         string
		contentType string
		decode      func([]byte, any) error
	}{
		{"json default", "/calculate", ContentTypeJSON, json.Unmarshal},
		{"json on unknown format", "/calculate?format=xml", ContentTypeJSON, json.Unmarshal},
		{"msgpack", "/calculate?format=msgpack", ContentTypeMsgPack, UnmarshalMsgPack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)

			err := f.WriteStatus(rr, req, http.StatusBadRequest, data, map[string]string{"X-Extra": "1"})
			if err != nil {
				t.Fatalf("WriteStatus: %v", err)
			}
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d", rr.Code)
			}
			if got := rr.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if rr.Header().Get("Access-Control-Allow-Origin") != "*" || rr.Header().Get("X-Extra") != "1" {
				t.Errorf("missing headers: %v", rr.Header())
			}

			var got payload
			if err := tt.decode(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(data, got); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMsgPackUsesJSONNames(t *testing.T) {
	b, err := MarshalMsgPack(payload{Name: "The Horn"})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := UnmarshalMsgPack(b, &m); err != nil {
		t.Fatal(err)
	}
	if m["lunar_mansion"] != "The Horn" {
		t.Errorf("decoded map = %v", m)
	}
	if _, ok := m["skip"]; ok {
		t.Error("omitempty should be honoured")
	}
}
