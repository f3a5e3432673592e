// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WidgetsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widgets_parsed_total",
			Help: "Total number of widget blocks successfully parsed",
		},
		[]string{"widget_type"},
	)

	WidgetParseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widget_parse_errors_total",
			Help: "Total number of widget blocks with malformed JSON",
		},
		[]string{"widget_type"},
	)

	WidgetValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "widget_validation_failures_total",
			Help: "Total number of normalized widgets rejected by validation",
		},
		[]string{"widget_type"},
	)

	StreamChunks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_chunks_total",
			Help: "Total number of stream chunks processed",
		},
	)

	StreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "stream_message_duration_seconds",
			Help: "Duration of a full message stream in seconds",
		},
		[]string{"outcome"},
	)
)
