// Package ingest turns delimited text exports into observations. Bad rows
// are skipped and reported as diagnostics rather than failing the parse.
package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/controlchart/internal/spc"
)

// ErrMissingHeaders is returned when a file lacks a required column
var ErrMissingHeaders = errors.New("CSV must contain headers: station, measure, date, value")

// Format identifies the column layout of an input file
type Format int

const (
	// FormatStandard is station,measure,date,value
	FormatStandard Format = iota
	// FormatMetric is timestamp,station,metric_value with the measure taken from the filename
	FormatMetric
)

func (f Format) String() string {
	switch f {
	case FormatStandard:
		return "standard"
	case FormatMetric:
		return "metric"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Diagnostic describes a record that was skipped
type Diagnostic struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Reason string `json:"reason"`
}

func (d Diagnostic) String() string {
	switch {
	case d.File != "" && d.Line > 0:
		return fmt.Sprintf("%s:%d: %s", d.File, d.Line, d.Reason)
	case d.Line > 0:
		return fmt.Sprintf("line %d: %s", d.Line, d.Reason)
	case d.File != "":
		return fmt.Sprintf("%s: %s", d.File, d.Reason)
	default:
		return d.Reason
	}
}

// Result is the outcome of parsing one or more inputs
type Result struct {
	Observations []spc.Observation
	Diagnostics  []Diagnostic
	Format       Format
}

func (r *Result) merge(other *Result) {
	r.Observations = append(r.Observations, other.Observations...)
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

// dateLayouts are tried in order when parsing the date column
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ParseDate parses the date forms found in dashboard exports. Zoneless
// values are read as UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
