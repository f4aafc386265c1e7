package spc

// Segment splits a date-ordered series into phases and stamps every point
// with the limits of its phase. Series shorter than two points are returned
// unaugmented with no phases. The input slice is never modified.
func Segment(obs []Observation) AugmentedSeries {
	s := newSegmenter(obs)
	if len(obs) < 2 {
		return s.result()
	}

	for !s.done() {
		s.step()
	}
	return s.result()
}

// segmenter walks the series one committed phase at a time. input is
// read-only; phases and points are owned by the segmenter.
type segmenter struct {
	input  []Observation
	cursor int
	phases []Phase
	points []AugmentedObservation
}

func newSegmenter(obs []Observation) *segmenter {
	points := make([]AugmentedObservation, len(obs))
	for i, o := range obs {
		points[i] = AugmentedObservation{Observation: o}
	}
	return &segmenter{
		input:  obs,
		phases: []Phase{},
		points: points,
	}
}

func (s *segmenter) done() bool {
	return s.cursor >= len(s.input)
}

// step commits the phase that starts at the cursor and advances past it.
func (s *segmenter) step() {
	remaining := s.input[s.cursor:]

	// The coarse center line spans post-shift data too and only seeds the
	// run detector.
	coarseCL, _ := Estimate(remaining)

	end := FindPhaseEnd(remaining, coarseCL) + s.cursor
	if end < s.cursor {
		end = s.cursor
	}

	limits := EstimateLimits(s.input[s.cursor : end+1])
	s.commit(end, limits)
	s.cursor = end + 1
}

func (s *segmenter) commit(end int, l Limits) {
	s.phases = append(s.phases, Phase{
		StartIndex: s.cursor,
		EndIndex:   end,
		Number:     len(s.phases) + 1,
		CL:         l.CL,
		UCL:        l.UCL,
		LCL:        l.LCL,
		MRBar:      l.MRBar,
	})

	for i := s.cursor; i <= end; i++ {
		cl, ucl, lcl := l.CL, l.UCL, l.LCL
		s.points[i].CL = &cl
		s.points[i].UCL = &ucl
		s.points[i].LCL = &lcl
	}
}

func (s *segmenter) result() AugmentedSeries {
	return AugmentedSeries{Points: s.points, Phases: s.phases}
}

// PhaseAt returns the phase containing index i, or false if none does.
func (a AugmentedSeries) PhaseAt(i int) (Phase, bool) {
	for _, p := range a.Phases {
		if i >= p.StartIndex && i <= p.EndIndex {
			return p, true
		}
	}
	return Phase{}, false
}
