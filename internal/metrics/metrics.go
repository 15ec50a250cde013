package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch metrics
var (
	// PagesFetched counts listing pages requested, by strategy and outcome
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_listing_pages_total",
			Help: "Listing pages requested by strategy and status",
		},
		[]string{"strategy", "status"},
	)

	// RecordsFetched counts discussion records yielded per channel
	RecordsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_discussion_records_total",
			Help: "Discussion records yielded by channel",
		},
		[]string{"channel"},
	)

	// CommentsFetched counts comment records yielded
	CommentsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_comment_records_total",
			Help: "Comment records yielded across all discussions",
		},
	)

	// ChannelFailures counts channels whose fetch was abandoned
	ChannelFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_channel_failures_total",
			Help: "Channel fetches abandoned after a transport or payload error",
		},
		[]string{"channel", "strategy"},
	)
)

// Pipeline metrics
var (
	// RunDuration tracks full pipeline stage latency in seconds
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracker_run_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"stage"},
	)

	// CombinedRows is the row count of the last combined table
	CombinedRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_combined_rows",
			Help: "Rows in the most recent combined organization table",
		},
	)

	// CorrelationDefined is 1 when the named correlation was computable on the last run, 0 otherwise
	CorrelationDefined = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracker_correlation_defined",
			Help: "Whether a correlation was computable on the last run (1) or not (0)",
		},
		[]string{"pair"},
	)
)
