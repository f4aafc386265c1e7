package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chrissnell/controlchart/internal/metrics"
	"github.com/chrissnell/controlchart/internal/spc"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Parser reads CSV exports into observations
type Parser struct {
	measureFiles   map[string]string
	stationAliases map[string]string
	logger         *zap.SugaredLogger
}

// NewParser creates a parser. measureFiles maps filenames to measure names
// for the metric format; stationAliases maps full station names to codes.
func NewParser(measureFiles, stationAliases map[string]string, logger *zap.SugaredLogger) *Parser {
	return &Parser{
		measureFiles:   measureFiles,
		stationAliases: stationAliases,
		logger:         logger,
	}
}

// columns holds header positions; -1 means absent
type columns struct {
	station, measure, date, value int
}

// detectFormat inspects the header row and works out the layout
func detectFormat(header []string) (Format, columns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	col := func(name string) int {
		if i, ok := idx[name]; ok {
			return i
		}
		return -1
	}

	if col("timestamp") >= 0 && col("metric_value") >= 0 && col("measure") < 0 {
		c := columns{station: col("station"), measure: -1, date: col("timestamp"), value: col("metric_value")}
		if c.station < 0 {
			return FormatMetric, c, ErrMissingHeaders
		}
		return FormatMetric, c, nil
	}

	c := columns{station: col("station"), measure: col("measure"), date: col("date"), value: col("value")}
	if c.station < 0 || c.measure < 0 || c.date < 0 || c.value < 0 {
		return FormatStandard, c, ErrMissingHeaders
	}
	return FormatStandard, c, nil
}

// Parse reads one CSV document. filename is used for diagnostics and, for
// the metric format, to name the measure.
func (p *Parser) Parse(r io.Reader, filename string) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrMissingHeaders
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	format, cols, err := detectFormat(header)
	if err != nil {
		return nil, err
	}

	res := &Result{Format: format}
	measure := ""
	if format == FormatMetric {
		measure = p.MeasureName(filename)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				p.skip(res, Diagnostic{File: filename, Line: perr.StartLine, Reason: perr.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("read %s: %w", filename, err)
		}

		line, _ := cr.FieldPos(0)
		if len(record) != len(header) {
			p.skip(res, Diagnostic{File: filename, Line: line,
				Reason: fmt.Sprintf("expected %d fields, got %d", len(header), len(record))})
			continue
		}

		obs, reason := p.observation(record, cols, measure)
		if reason != "" {
			p.skip(res, Diagnostic{File: filename, Line: line, Reason: reason})
			continue
		}
		res.Observations = append(res.Observations, obs)
		metrics.RowsParsed.WithLabelValues(metrics.StatusOK).Inc()
	}

	return res, nil
}

// observation converts one record; a non-empty reason means the row is bad
func (p *Parser) observation(record []string, cols columns, measure string) (spc.Observation, string) {
	station := strings.TrimSpace(record[cols.station])
	if station == "" {
		return spc.Observation{}, "missing station"
	}
	if alias, ok := p.stationAliases[station]; ok {
		station = alias
	}

	if cols.measure >= 0 {
		measure = strings.TrimSpace(record[cols.measure])
	}
	if measure == "" {
		return spc.Observation{}, "missing measure"
	}

	rawValue := strings.TrimSpace(record[cols.value])
	value, err := strconv.ParseFloat(rawValue, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return spc.Observation{}, fmt.Sprintf("invalid numeric value %q", rawValue)
	}

	date, err := ParseDate(strings.TrimSpace(record[cols.date]))
	if err != nil {
		return spc.Observation{}, "invalid date format: " + err.Error()
	}

	return spc.Observation{Station: station, Measure: measure, Date: date, Value: value}, ""
}

func (p *Parser) skip(res *Result, d Diagnostic) {
	res.Diagnostics = append(res.Diagnostics, d)
	metrics.RowsParsed.WithLabelValues(metrics.StatusSkipped).Inc()
	if p.logger != nil {
		p.logger.Warnf("skipping record: %v", d)
	}
}

// MeasureName names the measure held in a metric-format file: the
// configured name if there is one, otherwise the title-cased file stem.
func (p *Parser) MeasureName(filename string) string {
	if filename == "" {
		return "Metric"
	}
	base := filepath.Base(filename)
	if name, ok := p.measureFiles[base]; ok {
		return name
	}

	stem := strings.TrimSuffix(strings.TrimSuffix(base, ".csv"), ".CSV")
	stem = strings.ReplaceAll(stem, "_", " ")
	return cases.Title(language.English).String(stem)
}
