// Package responseformat encodes API responses and decodes request bodies as
// JSON or MessagePack.
package responseformat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgPack = "application/x-msgpack"
)

// ErrEmptyBody is returned by DecodeRequest for requests without a body
var ErrEmptyBody = errors.New("empty request body")

// Formatter writes responses in the format the client asked for. JSON is the
// default; MessagePack is chosen with ?format=msgpack or an Accept header
// naming application/x-msgpack.
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// ErrorBody is the payload of every non-2xx API response
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func wantsMsgPack(req *http.Request) bool {
	if req.URL.Query().Get("format") == "msgpack" {
		return true
	}
	for _, part := range strings.Split(req.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == ContentTypeMsgPack {
			return true
		}
	}
	return false
}

// WriteResponse writes data with the given status code
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, status int, data any) error {
	if wantsMsgPack(req) {
		w.Header().Set("Content-Type", ContentTypeMsgPack)
		w.WriteHeader(status)
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return enc.Encode(data)
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes an ErrorBody with the given status code
func (f *Formatter) WriteError(w http.ResponseWriter, req *http.Request, status int, msg string) error {
	return f.WriteResponse(w, req, status, ErrorBody{Success: false, Error: msg})
}

// DecodeRequest reads a request body into v. MessagePack bodies are
// recognized by their Content-Type; anything else is decoded as JSON.
func (f *Formatter) DecodeRequest(req *http.Request, v any) error {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(body) == 0 {
		return ErrEmptyBody
	}

	mt, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mt == ContentTypeMsgPack {
		dec := msgpack.NewDecoder(bytes.NewReader(body))
		dec.SetCustomStructTag("json")
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("decode msgpack body: %w", err)
		}
		return nil
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode json body: %w", err)
	}
	return nil
}
