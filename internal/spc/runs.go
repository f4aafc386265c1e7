package spc

// FindPhaseEnd scans obs for the first run of RunLength consecutive points
// strictly on one side of cl and returns the index of the last point before
// that run, relative to obs. A point equal to cl breaks any run in progress.
//
// If no run completes, the last index of obs is returned. A run that starts
// at obs[0] yields -1; callers re-base the offset and clamp it.
func FindPhaseEnd(obs []Observation, cl float64) int {
	if len(obs) < RunLength {
		return len(obs) - 1
	}

	above, below := 0, 0
	for i, o := range obs {
		switch {
		case o.Value > cl:
			above++
			below = 0
		case o.Value < cl:
			below++
			above = 0
		default:
			above, below = 0, 0
		}

		if above >= RunLength || below >= RunLength {
			return i - RunLength
		}
	}

	return len(obs) - 1
}
