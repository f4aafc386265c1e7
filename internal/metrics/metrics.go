package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

var (
	RowsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "controlchart_rows_parsed_total",
			Help: "Total CSV rows read, by outcome",
		},
		[]string{"status"},
	)

	SeriesSegmented = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "controlchart_series_segmented_total",
			Help: "Total series segmented into phases, by chart type",
		},
		[]string{"chart"},
	)

	PhasesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "controlchart_phases_detected_total",
			Help: "Total phases committed across all segmented series",
		},
		[]string{"chart"},
	)

	ProcessRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "controlchart_process_runs_total",
			Help: "Total processing runs, by source and outcome",
		},
		[]string{"source", "status"},
	)

	ProcessLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "controlchart_process_latency_seconds",
			Help:    "Time spent grouping and segmenting one upload",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
)
