package spc

import "testing"

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestFindPhaseEnd(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		cl     float64
		want   int
	}{
		{
			name:   "empty slice",
			values: nil,
			cl:     0,
			want:   -1,
		},
		{
			name:   "shorter than a run",
			values: []float64{1, 1, 1, 1, 1},
			cl:     0,
			want:   4,
		},
		{
			name:   "seven above is not a run",
			values: concat(repeat(20, 7), []float64{5}),
			cl:     10,
			want:   7,
		},
		{
			name:   "alternating never forms a run",
			values: []float64{9, 11, 9, 11, 9, 11, 9, 11, 9, 11, 9, 11},
			cl:     10,
			want:   11,
		},
		{
			name:   "run above after a stable stretch",
			values: concat([]float64{9, 11, 9, 11, 9, 11, 9}, repeat(20, 8)),
			cl:     10,
			want:   6,
		},
		{
			name:   "point above before the shift joins the run",
			values: concat([]float64{9, 11, 9, 11, 9, 11}, repeat(20, 8)),
			cl:     10,
			want:   4,
		},
		{
			name:   "run below after a stable stretch",
			values: concat(repeat(10, 3), repeat(0, 8)),
			cl:     5,
			want:   2,
		},
		{
			name:   "run starting at the first point",
			values: concat(repeat(1, 8), repeat(30, 8)),
			cl:     15,
			want:   -1,
		},
		{
			name:   "point on the center line resets the run",
			values: concat(repeat(11, 7), []float64{10}, repeat(11, 7)),
			cl:     10,
			want:   14,
		},
		{
			name:   "all points on the center line",
			values: repeat(10, 12),
			cl:     10,
			want:   11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindPhaseEnd(series(tt.values...), tt.cl)
			if got != tt.want {
				t.Errorf("expected phase end %d, got %d", tt.want, got)
			}
		})
	}
}
