// Package metrics exposes the Prometheus collectors for the ingest and
// analysis pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigia_uploads_total",
			Help: "Total number of workbook uploads by outcome",
		},
		[]string{"outcome"},
	)

	RowsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vigia_rows_dropped_total",
			Help: "Total number of failure rows dropped during cleaning",
		},
	)

	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vigia_analysis_duration_seconds",
			Help:    "Duration of analysis sections in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"section"},
	)

	ReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigia_reports_total",
			Help: "Total number of generated PDF reports by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(UploadsTotal)
	prometheus.MustRegister(RowsDroppedTotal)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(ReportsTotal)
}
