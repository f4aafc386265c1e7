package responseformat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type sample struct {
	RunID string  `json:"runId"`
	Value float64 `json:"value"`
}

func TestWriteResponseJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/demo", nil)
	rec := httptest.NewRecorder()

	if err := NewFormatter().WriteResponse(rec, req, http.StatusCreated, sample{RunID: "abc", Value: 1.5}); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != ContentTypeJSON {
		t.Errorf("expected JSON content type, got %s", ct)
	}

	var got sample
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.RunID != "abc" || got.Value != 1.5 {
		t.Errorf("unexpected body %+v", got)
	}
}

func TestWriteResponseMsgPack(t *testing.T) {
	tests := []struct {
		name string
		req  *http.Request
	}{
		{name: "query parameter", req: httptest.NewRequest(http.MethodGet, "/api/demo?format=msgpack", nil)},
		{name: "accept header", req: func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/api/demo", nil)
			r.Header.Set("Accept", ContentTypeMsgPack)
			return r
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := NewFormatter().WriteResponse(rec, tt.req, http.StatusOK, sample{RunID: "xyz", Value: 2}); err != nil {
				t.Fatal(err)
			}
			if ct := rec.Header().Get("Content-Type"); ct != ContentTypeMsgPack {
				t.Fatalf("expected msgpack content type, got %s", ct)
			}

			var got map[string]any
			if err := msgpack.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			if got["runId"] != "xyz" {
				t.Errorf("expected json tag names in msgpack output, got %v", got)
			}
		})
	}
}

func TestWantsMsgPack(t *testing.T) {
	tests := []struct {
		accept string
		want   bool
	}{
		{accept: "", want: false},
		{accept: "application/json", want: false},
		{accept: "application/json, */*", want: false},
		{accept: "application/x-msgpack", want: true},
		{accept: "application/x-msgpack, */*", want: true},
		{accept: "text/html;q=0.9, application/x-msgpack;q=0.8", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/demo", nil)
			req.Header.Set("Accept", tt.accept)
			if got := wantsMsgPack(req); got != tt.want {
				t.Errorf("Accept %q: expected %v, got %v", tt.accept, tt.want, got)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/process", nil)
	rec := httptest.NewRecorder()
	_ = NewFormatter().WriteError(rec, req, http.StatusBadRequest, "bad input")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Success || body.Error != "bad input" {
		t.Errorf("unexpected error body %+v", body)
	}
}

func TestDecodeRequest(t *testing.T) {
	f := NewFormatter()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"runId":"j","value":3}`))
	var got sample
	if err := f.DecodeRequest(req, &got); err != nil {
		t.Fatal(err)
	}
	if got.RunID != "j" || got.Value != 3 {
		t.Errorf("unexpected JSON decode %+v", got)
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(sample{RunID: "m", Value: 4}); err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", ContentTypeMsgPack)
	got = sample{}
	if err := f.DecodeRequest(req, &got); err != nil {
		t.Fatal(err)
	}
	if got.RunID != "m" || got.Value != 4 {
		t.Errorf("unexpected msgpack decode %+v", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := f.DecodeRequest(req, &got); err != ErrEmptyBody {
		t.Errorf("expected ErrEmptyBody, got %v", err)
	}
}
