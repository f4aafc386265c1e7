package spc

// MovingRangeSuffix is appended to a measure name for its moving range chart.
const MovingRangeSuffix = " (Moving Range)"

// MovingRangeSeries converts an individuals series into its moving range
// series: one point per consecutive pair, valued |x[i]-x[i-1]| and dated at
// x[i]. Station is kept and the measure gets MovingRangeSuffix.
func MovingRangeSeries(obs []Observation) []Observation {
	if len(obs) < 2 {
		return nil
	}

	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Value
	}
	ranges := movingRanges(values)

	out := make([]Observation, len(ranges))
	for i, r := range ranges {
		src := obs[i+1]
		out[i] = Observation{
			Station: src.Station,
			Measure: src.Measure + MovingRangeSuffix,
			Date:    src.Date,
			Value:   r,
		}
	}
	return out
}
