package restserver

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chrissnell/controlchart/internal/constants"
	"github.com/chrissnell/controlchart/internal/demo"
	"github.com/chrissnell/controlchart/internal/ingest"
	"github.com/chrissnell/controlchart/internal/processor"
	"github.com/chrissnell/controlchart/internal/render"
	"github.com/chrissnell/controlchart/internal/spc"
	"github.com/chrissnell/controlchart/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
	deps       Deps

	demoMu  sync.Mutex
	demoGen *demo.Generator
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller, deps Deps) *Handlers {
	h := &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
		deps:       deps,
	}
	if deps.DemoSeed != 0 {
		h.demoGen = demo.NewGenerator(deps.DemoSeed)
	}
	return h
}

// uploadRequest is the body of /api/process and /api/chart
type uploadRequest struct {
	CSVData  string `json:"csvData"`
	Filename string `json:"filename"`
	Station  string `json:"station,omitempty"`
	Measure  string `json:"measure,omitempty"`
}

// segmentRequest is the body of /api/segment
type segmentRequest struct {
	Observations []struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	} `json:"observations"`
}

type rootResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
}

// ProcessUpload processes an uploaded CSV document
func (h *Handlers) ProcessUpload(w http.ResponseWriter, req *http.Request) {
	var body uploadRequest
	if !h.decode(w, req, &body) {
		return
	}
	if strings.TrimSpace(body.CSVData) == "" {
		h.formatter.WriteError(w, req, http.StatusBadRequest, "csvData is required")
		return
	}

	res, err := h.controller.processor.ProcessCSV(req.Context(), strings.NewReader(body.CSVData), body.Filename)
	if err != nil {
		h.processingError(w, req, err)
		return
	}
	h.formatter.WriteResponse(w, req, http.StatusOK, res)
}

// ProcessDemo generates demo data and processes it
func (h *Handlers) ProcessDemo(w http.ResponseWriter, req *http.Request) {
	data, err := h.demoCSV()
	if err != nil {
		h.controller.logger.Errorf("error generating demo data: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "could not generate demo data")
		return
	}

	res, err := h.controller.processor.ProcessCSV(req.Context(), bytes.NewReader(data), "demo.csv")
	if err != nil {
		h.processingError(w, req, err)
		return
	}
	h.formatter.WriteResponse(w, req, http.StatusOK, res)
}

func (h *Handlers) demoCSV() ([]byte, error) {
	end := h.deps.Now()
	if h.demoGen == nil {
		return demo.NewGenerator(uint64(time.Now().UnixNano())).CSV(end)
	}

	h.demoMu.Lock()
	defer h.demoMu.Unlock()
	return h.demoGen.CSV(end)
}

// LoadActual processes the configured actual-data folder
func (h *Handlers) LoadActual(w http.ResponseWriter, req *http.Request) {
	res, err := h.controller.processor.ProcessFolder(req.Context(), h.deps.InputFolder)
	if err != nil {
		h.processingError(w, req, err)
		return
	}
	h.formatter.WriteResponse(w, req, http.StatusOK, res)
}

// GetActual returns the latest background-refreshed folder result
func (h *Handlers) GetActual(w http.ResponseWriter, req *http.Request) {
	if h.deps.Actual == nil {
		h.formatter.WriteError(w, req, http.StatusNotFound, "background refresh is disabled; use POST /api/load-actual")
		return
	}

	res, loadedAt, err := h.deps.Actual.Latest()
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, err.Error())
		return
	}
	w.Header().Set("Last-Modified", loadedAt.UTC().Format(http.TimeFormat))
	h.formatter.WriteResponse(w, req, http.StatusOK, res)
}

// SegmentSeries segments a single series of dated values and returns the
// unrounded result
func (h *Handlers) SegmentSeries(w http.ResponseWriter, req *http.Request) {
	var body segmentRequest
	if !h.decode(w, req, &body) {
		return
	}

	obs := make([]spc.Observation, 0, len(body.Observations))
	for i, o := range body.Observations {
		date, err := ingest.ParseDate(o.Date)
		if err != nil {
			h.formatter.WriteError(w, req, http.StatusBadRequest, fmt.Sprintf("observation %d: %v", i, err))
			return
		}
		obs = append(obs, spc.Observation{Date: date, Value: o.Value})
	}
	slices.SortStableFunc(obs, func(a, b spc.Observation) int {
		return a.Date.Compare(b.Date)
	})

	h.formatter.WriteResponse(w, req, http.StatusOK, spc.Segment(obs))
}

// RenderChart processes an uploaded CSV document and returns one series as
// a PNG chart
func (h *Handlers) RenderChart(w http.ResponseWriter, req *http.Request) {
	var body uploadRequest
	if !h.decode(w, req, &body) {
		return
	}
	if body.Station == "" || body.Measure == "" {
		h.formatter.WriteError(w, req, http.StatusBadRequest, "station and measure are required")
		return
	}

	res, err := h.controller.processor.ProcessCSV(req.Context(), strings.NewReader(body.CSVData), body.Filename)
	if err != nil {
		h.processingError(w, req, err)
		return
	}

	series, ok := res.Series(body.Station, body.Measure)
	if !ok {
		h.formatter.WriteError(w, req, http.StatusNotFound, fmt.Sprintf("no series for %s / %s", body.Station, body.Measure))
		return
	}

	var buf bytes.Buffer
	err = render.ControlChart(&buf, series, render.Options{Title: body.Station + " - " + body.Measure})
	if errors.Is(err, render.ErrNotEnoughPoints) {
		h.formatter.WriteError(w, req, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		h.controller.logger.Errorf("error rendering chart: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "could not render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetHTTPLogs returns the recent HTTP access log
func (h *Handlers) GetHTTPLogs(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, http.StatusOK, h.controller.httpLogs.Entries())
}

// Healthz reports liveness
func (h *Handlers) Healthz(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, http.StatusOK, map[string]string{"status": "ok"})
}

// MethodNotAllowed answers a known path requested with the wrong method
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteError(w, req, http.StatusMethodNotAllowed, fmt.Sprintf("%s not allowed on %s", req.Method, req.URL.Path))
}

// Root identifies the service
func (h *Handlers) Root(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, http.StatusOK, rootResponse{
		Service: constants.ServiceName,
		Version: constants.Version,
	})
}

// decode reads the request body into v, writing an error response and
// returning false on failure
func (h *Handlers) decode(w http.ResponseWriter, req *http.Request, v any) bool {
	err := h.formatter.DecodeRequest(req, v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.formatter.WriteError(w, req, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return false
	}
	h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
	return false
}

func (h *Handlers) processingError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, ingest.ErrMissingHeaders), errors.Is(err, processor.ErrNoValidData):
		h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
	case errors.Is(err, fs.ErrNotExist):
		h.formatter.WriteError(w, req, http.StatusNotFound, err.Error())
	case req.Context().Err() != nil:
		h.controller.logger.Warnf("request cancelled: %v", err)
	default:
		h.controller.logger.Errorf("error processing data: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "error processing data")
	}
}
