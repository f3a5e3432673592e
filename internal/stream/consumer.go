// Package stream consumes an upstream completion stream chunk by chunk,
// reparsing the cumulative buffer through the widget streaming parser on
// every arrival and pushing each intermediate view to a sink. Chunks are
// processed strictly in arrival order: the cumulative-reparse design is only
// correct if the buffer grows and never reorders, so any transport that can
// reorder or duplicate must sequence before delivery.
package stream

import (
	"context"
	"errors"
	"io"
	"time"

	cmerrors "ziyara-stream/internal/common/errors"
	"ziyara-stream/internal/common/logger"
	"ziyara-stream/internal/common/metrics"
	"ziyara-stream/internal/widgets"
)

// ChunkSource is an ordered sequence of text chunks. Recv returns io.EOF on
// normal end of stream and any other error on transport failure.
type ChunkSource interface {
	Recv(ctx context.Context) (string, error)
}

// Sink receives each intermediate parse view as the buffer grows. OnUpdate
// runs to completion before the next chunk is consumed; there is no
// overlapping invocation.
type Sink interface {
	OnUpdate(buffer string, result widgets.StreamingParseResult)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(buffer string, result widgets.StreamingParseResult)

func (f SinkFunc) OnUpdate(buffer string, result widgets.StreamingParseResult) { f(buffer, result) }

// Result summarizes a consumed stream. On transport failure or abort the
// accumulated buffer and its last parse are still returned: partial text
// stays visible, marked incomplete, and no widget whose close marker had not
// arrived is ever included.
type Result struct {
	Buffer    string
	Parsed    widgets.StreamingParseResult
	Completed bool
}

// Consumer drives a ChunkSource to completion.
type Consumer struct {
	maxBufferBytes int
	logger         logger.Logger
}

func NewConsumer(maxBufferBytes int, log logger.Logger) *Consumer {
	return &Consumer{
		maxBufferBytes: maxBufferBytes,
		logger:         log.WithFields(map[string]interface{}{"component": "stream-consumer"}),
	}
}

// Run consumes the source until end of stream, transport failure, or
// cancellation. The sink sees every intermediate parse; the returned Result
// holds the final one.
func (c *Consumer) Run(ctx context.Context, source ChunkSource, sink Sink) (*Result, error) {
	started := time.Now()
	var buffer string

	finish := func(outcome string) {
		metrics.StreamDuration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
	}

	for {
		chunk, err := source.Recv(ctx)
		if err != nil {
			parsed := widgets.ParseStreaming(buffer)

			switch {
			case errors.Is(err, io.EOF):
				c.recordSegments(parsed)
				finish("completed")
				sink.OnUpdate(buffer, parsed)
				return &Result{Buffer: buffer, Parsed: parsed, Completed: true}, nil

			case ctx.Err() != nil:
				// Consumer-initiated abort: no further state mutation, the
				// sink is not called again.
				finish("aborted")
				return &Result{Buffer: buffer, Parsed: parsed, Completed: false},
					cmerrors.NewStreamAbortedError()

			default:
				finish("transport_error")
				c.logger.WithError(err).Warn("transport failure mid-stream",
					map[string]interface{}{"bufferBytes": len(buffer)})
				return &Result{Buffer: buffer, Parsed: parsed, Completed: false},
					cmerrors.NewStreamTransportError(err)
			}
		}

		buffer += chunk
		if c.maxBufferBytes > 0 && len(buffer) > c.maxBufferBytes {
			parsed := widgets.ParseStreaming(buffer)
			finish("buffer_exceeded")
			return &Result{Buffer: buffer, Parsed: parsed, Completed: false},
				cmerrors.NewStreamBufferExceededError(len(buffer), c.maxBufferBytes)
		}

		metrics.StreamChunks.Inc()
		sink.OnUpdate(buffer, widgets.ParseStreaming(buffer))
	}
}

// recordSegments counts the final stream's widget outcomes. Only the final
// parse is counted so intermediate reparses never double-report.
func (c *Consumer) recordSegments(parsed widgets.StreamingParseResult) {
	for _, seg := range parsed.CompleteSegments {
		if seg.Kind == widgets.SegmentWidget {
			metrics.WidgetsParsed.WithLabelValues(string(seg.WidgetType)).Inc()
		}
	}
	for _, block := range parsed.Malformed {
		metrics.WidgetParseErrors.WithLabelValues(block.WidgetType).Inc()
		c.logger.WithError(block.Err).Warn("widget block degraded to inline text",
			map[string]interface{}{"widgetType": block.WidgetType})
	}
}
