// Package render draws segmented series as PNG individuals charts.
package render

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/chrissnell/controlchart/internal/spc"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"
)

// ErrNotEnoughPoints is returned for series that cannot be charted
var ErrNotEnoughPoints = errors.New("at least two points are required to draw a chart")

const (
	DefaultWidth  = 1024
	DefaultHeight = 400
)

var (
	valueColor    = drawing.ColorFromHex("1f77b4")
	centerColor   = drawing.ColorFromHex("2ca02c")
	limitColor    = drawing.ColorFromHex("d62728")
	boundaryColor = drawing.ColorFromHex("7f7f7f")
)

// Options sets the chart title and size; zero sizes use the defaults
type Options struct {
	Title  string
	Width  int
	Height int
}

// ControlChart writes a PNG chart of s to w: the values, stepped limits per
// phase, and a vertical marker where each new phase begins.
func ControlChart(w io.Writer, s spc.AugmentedSeries, opts Options) error {
	if len(s.Points) < 2 {
		return ErrNotEnoughPoints
	}
	if opts.Width == 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height == 0 {
		opts.Height = DefaultHeight
	}

	times := make([]time.Time, len(s.Points))
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		times[i] = p.Date
		values[i] = p.Value
	}

	lo, hi := yRange(values, s.Phases)

	series := []chart.Series{
		chart.TimeSeries{
			Name:    "Value",
			XValues: times,
			YValues: values,
			Style: chart.Style{
				StrokeColor: valueColor,
				StrokeWidth: 2,
				DotColor:    valueColor,
				DotWidth:    3,
			},
		},
	}

	for i, ph := range s.Phases {
		start, end := times[ph.StartIndex], times[ph.EndIndex]
		if end.Equal(start) {
			// One-point phases still get a visible step
			end = start.Add(time.Hour)
		}
		xs := []time.Time{start, end}

		series = append(series,
			limitSeries(fmt.Sprintf("CL %d", ph.Number), xs, ph.CL, centerColor, nil),
			limitSeries(fmt.Sprintf("UCL %d", ph.Number), xs, ph.UCL, limitColor, []float64{5, 5}),
			limitSeries(fmt.Sprintf("LCL %d", ph.Number), xs, ph.LCL, limitColor, []float64{5, 5}),
		)

		if i > 0 {
			series = append(series, chart.TimeSeries{
				Name:    fmt.Sprintf("Phase %d", ph.Number),
				XValues: []time.Time{start, start},
				YValues: []float64{lo, hi},
				Style: chart.Style{
					StrokeColor:     boundaryColor,
					StrokeWidth:     1,
					StrokeDashArray: []float64{2, 4},
				},
			})
		}
	}

	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func limitSeries(name string, xs []time.Time, y float64, color drawing.Color, dash []float64) chart.TimeSeries {
	return chart.TimeSeries{
		Name:    name,
		XValues: xs,
		YValues: []float64{y, y},
		Style: chart.Style{
			StrokeColor:     color,
			StrokeWidth:     1.5,
			StrokeDashArray: dash,
		},
	}
}

// yRange covers every value and limit with a margin, and never collapses
// to zero height.
func yRange(values []float64, phases []spc.Phase) (lo, hi float64) {
	lo, hi = floats.Min(values), floats.Max(values)
	for _, ph := range phases {
		lo = min(lo, ph.LCL)
		hi = max(hi, ph.UCL)
	}

	margin := (hi - lo) * 0.05
	if margin == 0 {
		margin = 1
	}
	return lo - margin, hi + margin
}
