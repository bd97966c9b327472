package productivity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// aggregatorRuns counts ComputeDailyMetrics outcomes
	aggregatorRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workpulse_aggregator_runs_total",
		Help: "Total number of daily metric computations by outcome",
	}, []string{"outcome"})

	aggregatorDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "workpulse_aggregator_duration_seconds",
		Help:    "Histogram of daily metric computation latency in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// scanPairs counts (project, date) pairs visited by the scan driver
	scanPairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workpulse_scan_pairs_total",
		Help: "Total number of project/date pairs visited by the scan driver by outcome",
	}, []string{"outcome"})

	scanRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workpulse_scan_runs_total",
		Help: "Total number of scan driver runs by status",
	}, []string{"status"})

	scanInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "workpulse_scan_in_progress",
		Help: "Whether a scan is currently running in this process",
	})
)
