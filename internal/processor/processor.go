// Package processor groups parsed observations into station/measure series
// and segments each one into control chart phases.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/chrissnell/controlchart/internal/ingest"
	"github.com/chrissnell/controlchart/internal/metrics"
	"github.com/chrissnell/controlchart/internal/spc"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoValidData is returned when parsing leaves nothing to chart
var ErrNoValidData = errors.New("no valid data points found")

const (
	chartIndividuals = "individuals"
	chartMovingRange = "moving_range"
)

// ChartData maps station -> measure -> segmented series
type ChartData map[string]map[string]spc.AugmentedSeries

// Result is the full response for one processing run
type Result struct {
	Success     bool                `json:"success"`
	RunID       string              `json:"runId"`
	ChartData   ChartData           `json:"chartData"`
	Stations    []string            `json:"stations"`
	Diagnostics []ingest.Diagnostic `json:"diagnostics"`
	TotalPoints int                 `json:"totalPoints"`
}

// Series returns the segmented series for a station and measure
func (r *Result) Series(station, measure string) (spc.AugmentedSeries, bool) {
	measures, ok := r.ChartData[station]
	if !ok {
		return spc.AugmentedSeries{}, false
	}
	s, ok := measures[measure]
	return s, ok
}

// Options tunes a Processor
type Options struct {
	// Workers bounds concurrent segmentation; zero means GOMAXPROCS
	Workers int
	// RoundDecimals rounds reported limits; negative disables rounding
	RoundDecimals int
	// MovingRange adds a segmented moving range series for every measure
	MovingRange bool
}

// Processor turns CSV uploads into chart data
type Processor struct {
	parser *ingest.Parser
	opts   Options
	logger *zap.SugaredLogger
}

// New creates a Processor
func New(parser *ingest.Parser, opts Options, logger *zap.SugaredLogger) *Processor {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Processor{
		parser: parser,
		opts:   opts,
		logger: logger,
	}
}

// ProcessCSV parses one uploaded document and processes it
func (p *Processor) ProcessCSV(ctx context.Context, r io.Reader, filename string) (*Result, error) {
	parsed, err := p.parser.Parse(r, filename)
	if err != nil {
		metrics.ProcessRuns.WithLabelValues("upload", metrics.StatusError).Inc()
		return nil, err
	}
	return p.Process(ctx, "upload", parsed)
}

// ProcessFolder loads the actual-data folder and processes it
func (p *Processor) ProcessFolder(ctx context.Context, dir string) (*Result, error) {
	parsed, err := p.parser.LoadFolder(dir)
	if err != nil {
		metrics.ProcessRuns.WithLabelValues("folder", metrics.StatusError).Inc()
		return nil, err
	}
	return p.Process(ctx, "folder", parsed)
}

// group is one station/measure series awaiting segmentation
type group struct {
	station string
	measure string
	obs     []spc.Observation
	x       spc.AugmentedSeries
	mr      *spc.AugmentedSeries
}

// Process groups parsed observations and segments every group. source
// labels metrics and logs.
func (p *Processor) Process(ctx context.Context, source string, parsed *ingest.Result) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.ProcessLatency.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}()

	if len(parsed.Observations) == 0 {
		metrics.ProcessRuns.WithLabelValues(source, metrics.StatusError).Inc()
		return nil, ErrNoValidData
	}

	groups, stations := groupObservations(parsed.Observations)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.opts.Workers)
	for _, g := range groups {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			p.segmentGroup(g)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		metrics.ProcessRuns.WithLabelValues(source, metrics.StatusError).Inc()
		return nil, fmt.Errorf("processing cancelled: %w", err)
	}

	result := &Result{
		Success:     true,
		RunID:       uuid.NewString(),
		ChartData:   make(ChartData, len(stations)),
		Stations:    stations,
		Diagnostics: parsed.Diagnostics,
		TotalPoints: len(parsed.Observations),
	}
	if result.Diagnostics == nil {
		result.Diagnostics = []ingest.Diagnostic{}
	}

	for _, g := range groups {
		measures, ok := result.ChartData[g.station]
		if !ok {
			measures = make(map[string]spc.AugmentedSeries)
			result.ChartData[g.station] = measures
		}
		measures[g.measure] = g.x
		if g.mr != nil {
			measures[g.measure+spc.MovingRangeSuffix] = *g.mr
		}
	}

	metrics.ProcessRuns.WithLabelValues(source, metrics.StatusOK).Inc()
	if p.logger != nil {
		p.logger.Infow("processed observations",
			"run_id", result.RunID,
			"source", source,
			"points", result.TotalPoints,
			"series", len(groups),
			"stations", len(stations),
			"skipped", len(result.Diagnostics),
			"duration", time.Since(start),
		)
	}
	return result, nil
}

func (p *Processor) segmentGroup(g *group) {
	g.x = p.round(spc.Segment(g.obs))
	metrics.SeriesSegmented.WithLabelValues(chartIndividuals).Inc()
	metrics.PhasesDetected.WithLabelValues(chartIndividuals).Add(float64(len(g.x.Phases)))

	if p.opts.MovingRange && len(g.obs) >= 2 {
		mr := p.round(spc.Segment(spc.MovingRangeSeries(g.obs)))
		g.mr = &mr
		metrics.SeriesSegmented.WithLabelValues(chartMovingRange).Inc()
		metrics.PhasesDetected.WithLabelValues(chartMovingRange).Add(float64(len(mr.Phases)))
	}

	if p.logger != nil {
		p.logger.Debugf("segmented %s / %s: %d points, %d phases", g.station, g.measure, len(g.obs), len(g.x.Phases))
	}
}

// groupObservations splits observations by station then measure, keeping
// first-appearance order, and sorts each series by date.
func groupObservations(obs []spc.Observation) ([]*group, []string) {
	type key struct{ station, measure string }

	var groups []*group
	var stations []string
	index := make(map[key]*group)
	seenStation := make(map[string]bool)

	for _, o := range obs {
		k := key{o.Station, o.Measure}
		g, ok := index[k]
		if !ok {
			g = &group{station: o.Station, measure: o.Measure}
			index[k] = g
			groups = append(groups, g)
		}
		g.obs = append(g.obs, o)

		if !seenStation[o.Station] {
			seenStation[o.Station] = true
			stations = append(stations, o.Station)
		}
	}

	for _, g := range groups {
		sort.SliceStable(g.obs, func(i, j int) bool {
			return g.obs[i].Date.Before(g.obs[j].Date)
		})
	}
	return groups, stations
}

// round applies the configured rounding to every limit in s
func (p *Processor) round(s spc.AugmentedSeries) spc.AugmentedSeries {
	d := p.opts.RoundDecimals
	if d < 0 {
		return s
	}

	for i := range s.Phases {
		ph := &s.Phases[i]
		ph.CL = roundTo(ph.CL, d)
		ph.UCL = roundTo(ph.UCL, d)
		ph.LCL = roundTo(ph.LCL, d)
		ph.MRBar = roundTo(ph.MRBar, d)
	}
	for i := range s.Points {
		pt := &s.Points[i]
		for _, v := range []*float64{pt.CL, pt.UCL, pt.LCL} {
			if v != nil {
				*v = roundTo(*v, d)
			}
		}
	}
	return s
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
