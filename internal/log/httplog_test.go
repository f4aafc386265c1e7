package log

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPLogBufferWraps(t *testing.T) {
	buf := NewHTTPLogBuffer(3)
	for _, p := range []string{"/a", "/b", "/c", "/d", "/e"} {
		buf.Add(HTTPLogEntry{Path: p})
	}

	entries := buf.Entries()
	want := []string{"/c", "/d", "/e"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e.Path != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], e.Path)
		}
	}
}

func TestHTTPLogBufferPartial(t *testing.T) {
	buf := NewHTTPLogBuffer(5)
	buf.Add(HTTPLogEntry{Path: "/only"})

	entries := buf.Entries()
	if len(entries) != 1 || entries[0].Path != "/only" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestHTTPMiddlewareRecordsStatus(t *testing.T) {
	buf := NewHTTPLogBuffer(10)
	handler := HTTPMiddleware(buf)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/process", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := buf.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Status != http.StatusTeapot || e.Method != http.MethodPost || e.Path != "/api/process" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.Size != int64(len("short and stout")) {
		t.Errorf("expected size %d, got %d", len("short and stout"), e.Size)
	}
}
