// Package spc implements individuals (XmR) control charts with automatic
// phase segmentation on sustained process shifts.
package spc

import "time"

const (
	// RunLength is the number of consecutive points on one side of the
	// center line that signals a process shift.
	RunLength = 8

	// LimitMultiplier converts the average moving range into 3-sigma
	// equivalent natural process limits for an individuals chart.
	LimitMultiplier = 2.66
)

// Observation is a single timestamped measurement. Station and Measure are
// carried through untouched; the algorithms only look at Value.
type Observation struct {
	Station string    `json:"station,omitempty"`
	Measure string    `json:"measure,omitempty"`
	Date    time.Time `json:"date"`
	Value   float64   `json:"value"`
}

// AugmentedObservation is an Observation stamped with the limits of the
// phase that contains it. The limit fields are nil for series too short
// to segment.
type AugmentedObservation struct {
	Observation
	CL  *float64 `json:"cl,omitempty"`
	UCL *float64 `json:"ucl,omitempty"`
	LCL *float64 `json:"lcl,omitempty"`
}

// Phase is a contiguous, inclusive index range governed by one set of limits.
type Phase struct {
	StartIndex int     `json:"startIndex"`
	EndIndex   int     `json:"endIndex"`
	Number     int     `json:"phaseNumber"`
	CL         float64 `json:"cl"`
	UCL        float64 `json:"ucl"`
	LCL        float64 `json:"lcl"`
	MRBar      float64 `json:"mrBar"`
}

// Len returns the number of observations in the phase.
func (p Phase) Len() int {
	return p.EndIndex - p.StartIndex + 1
}

// AugmentedSeries is the result of segmenting one series.
type AugmentedSeries struct {
	Points []AugmentedObservation `json:"points"`
	Phases []Phase                `json:"phases"`
}

// Limits holds the center line, average moving range and the natural
// process limits derived from them.
type Limits struct {
	CL    float64
	MRBar float64
	UCL   float64
	LCL   float64
}
