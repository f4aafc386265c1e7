package spc

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Estimate returns the center line (mean) and the average moving range of
// the observations. An empty slice yields zeros and a single observation
// yields its own value with no moving range.
func Estimate(obs []Observation) (cl, mrBar float64) {
	switch len(obs) {
	case 0:
		return 0, 0
	case 1:
		return obs[0].Value, 0
	}

	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Value
	}

	cl = stat.Mean(values, nil)
	mrBar = stat.Mean(movingRanges(values), nil)
	return cl, mrBar
}

// LimitsFrom derives UCL and LCL from a center line and average moving range.
// The LCL is floored at zero since the monitored quantities are counts and
// rates, so LCL <= CL <= UCL only holds for non-negative data.
func LimitsFrom(cl, mrBar float64) Limits {
	spread := LimitMultiplier * mrBar
	return Limits{
		CL:    cl,
		MRBar: mrBar,
		UCL:   cl + spread,
		LCL:   math.Max(0, cl-spread),
	}
}

// EstimateLimits is Estimate followed by LimitsFrom.
func EstimateLimits(obs []Observation) Limits {
	return LimitsFrom(Estimate(obs))
}

// movingRanges returns |v[i]-v[i-1]| for i in [1, len(v)).
func movingRanges(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	mr := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		mr[i-1] = math.Abs(values[i] - values[i-1])
	}
	return mr
}
