package spc

import (
	"math"
	"testing"
	"time"
)

const epsilon = 1e-9

func series(values ...float64) []Observation {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]Observation, len(values))
	for i, v := range values {
		obs[i] = Observation{
			Station: "AUS",
			Measure: "Maintenance Delays",
			Date:    start.AddDate(0, 0, i),
			Value:   v,
		}
	}
	return obs
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		wantCL    float64
		wantMRBar float64
	}{
		{name: "empty", values: nil, wantCL: 0, wantMRBar: 0},
		{name: "single value", values: []float64{42}, wantCL: 42, wantMRBar: 0},
		{name: "constant", values: []float64{5, 5, 5, 5}, wantCL: 5, wantMRBar: 0},
		{name: "three values", values: []float64{1, 3, 2}, wantCL: 2, wantMRBar: 1.5},
		{name: "negative values", values: []float64{-4, 4}, wantCL: 0, wantMRBar: 8},
		{name: "alternating", values: []float64{9, 11, 9, 11}, wantCL: 10, wantMRBar: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl, mrBar := Estimate(series(tt.values...))
			if math.Abs(cl-tt.wantCL) > epsilon {
				t.Errorf("cl: expected %.4f, got %.4f", tt.wantCL, cl)
			}
			if math.Abs(mrBar-tt.wantMRBar) > epsilon {
				t.Errorf("mR_bar: expected %.4f, got %.4f", tt.wantMRBar, mrBar)
			}
		})
	}
}

func TestLimitsFrom(t *testing.T) {
	tests := []struct {
		name    string
		cl      float64
		mrBar   float64
		wantUCL float64
		wantLCL float64
	}{
		{name: "no variation", cl: 5, mrBar: 0, wantUCL: 5, wantLCL: 5},
		{name: "symmetric limits", cl: 10, mrBar: 1, wantUCL: 12.66, wantLCL: 7.34},
		{name: "lcl floored at zero", cl: 1, mrBar: 1, wantUCL: 3.66, wantLCL: 0},
		{name: "negative center line", cl: -3, mrBar: 0, wantUCL: -3, wantLCL: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := LimitsFrom(tt.cl, tt.mrBar)
			if l.CL != tt.cl || l.MRBar != tt.mrBar {
				t.Errorf("expected cl/mR_bar to pass through, got %+v", l)
			}
			if math.Abs(l.UCL-tt.wantUCL) > epsilon {
				t.Errorf("ucl: expected %.4f, got %.4f", tt.wantUCL, l.UCL)
			}
			if math.Abs(l.LCL-tt.wantLCL) > epsilon {
				t.Errorf("lcl: expected %.4f, got %.4f", tt.wantLCL, l.LCL)
			}
		})
	}
}

func TestEstimateLimitsOrdering(t *testing.T) {
	for _, values := range [][]float64{
		{0, 0, 0},
		{1, 3, 2},
		{10, 12, 9, 11, 30},
		{0.5, 0.1, 0.9, 0.2},
	} {
		l := EstimateLimits(series(values...))
		if l.LCL > l.CL || l.CL > l.UCL {
			t.Errorf("%v: expected lcl <= cl <= ucl, got %+v", values, l)
		}
	}

	// the zero floor lifts the lcl above an all-negative center line
	l := EstimateLimits(series(-5, -3, -4, -6))
	if math.Abs(l.CL-(-4.5)) > epsilon {
		t.Errorf("cl: expected -4.5, got %.4f", l.CL)
	}
	if math.Abs(l.UCL-(-4.5+LimitMultiplier*5.0/3.0)) > epsilon {
		t.Errorf("ucl: expected %.4f, got %.4f", -4.5+LimitMultiplier*5.0/3.0, l.UCL)
	}
	if l.LCL != 0 {
		t.Errorf("lcl: expected 0, got %.4f", l.LCL)
	}
}

func TestMovingRangeSeries(t *testing.T) {
	obs := series(1, 4, 2)
	mr := MovingRangeSeries(obs)

	if len(mr) != 2 {
		t.Fatalf("expected 2 moving ranges, got %d", len(mr))
	}
	want := []float64{3, 2}
	for i, o := range mr {
		if o.Value != want[i] {
			t.Errorf("point %d: expected %.1f, got %.1f", i, want[i], o.Value)
		}
		if !o.Date.Equal(obs[i+1].Date) {
			t.Errorf("point %d: expected date %v, got %v", i, obs[i+1].Date, o.Date)
		}
		if o.Measure != "Maintenance Delays (Moving Range)" {
			t.Errorf("point %d: unexpected measure %q", i, o.Measure)
		}
		if o.Station != "AUS" {
			t.Errorf("point %d: unexpected station %q", i, o.Station)
		}
	}

	if got := MovingRangeSeries(series(7)); got != nil {
		t.Errorf("expected nil for a single point, got %v", got)
	}
}
