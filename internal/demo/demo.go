// Package demo generates synthetic maintenance metrics for trying out the
// dashboard without real exports.
package demo

import (
	"bytes"
	"encoding/csv"
	"math"
	"math/rand/v2"
	"strconv"
	"time"
)

var (
	Stations = []string{"AUS", "DAL", "HOU"}
	Measures = []string{
		"Maintenance Cancels",
		"Maintenance Delays",
		"Scheduled Maintenance Findings",
		"Unscheduled Maintenance",
	}
)

// Days is the number of daily observations per station and measure
const Days = 60

// Generator produces demo CSV documents
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator. The same seed produces the same data
// for the same end date.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x5bd1e995))}
}

// level describes the base value and spread for one station/measure on a
// given day, counted down from Days to 1.
func level(station, measure string, daysAgo int) (base, variance float64) {
	if station == "DAL" && measure == "Maintenance Delays" {
		// Dallas improves over the window in two steps
		switch {
		case float64(daysAgo) > Days*0.66:
			return 12, 3
		case float64(daysAgo) > Days*0.33:
			return 9, 2.5
		default:
			return 7, 2
		}
	}

	switch measure {
	case "Maintenance Cancels":
		return 2.0, 1.0
	case "Maintenance Delays":
		return 11, 3
	case "Scheduled Maintenance Findings":
		return 15, 4
	default:
		return 8, 3
	}
}

// CSV renders Days of data ending the day before end in the standard
// station,measure,date,value format.
func (g *Generator) CSV(end time.Time) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"station", "measure", "date", "value"}); err != nil {
		return nil, err
	}

	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	for daysAgo := Days; daysAgo > 0; daysAgo-- {
		date := endDay.AddDate(0, 0, -daysAgo).Format("2006-01-02")
		for _, station := range Stations {
			for _, measure := range Measures {
				base, variance := level(station, measure, daysAgo)
				v := base + (g.rng.Float64()-0.5)*variance
				v = math.Max(0, math.Round(v*100)/100)

				record := []string{station, measure, date, strconv.FormatFloat(v, 'f', -1, 64)}
				if err := w.Write(record); err != nil {
					return nil, err
				}
			}
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}
