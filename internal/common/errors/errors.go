// Package errors provides standardized error handling for the widget stream
// pipeline. No error here is fatal to a chat session: the worst user-visible
// outcome is a placeholder widget next to otherwise-intact prose.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Widget pipeline errors — all recovered locally, never fatal.
	ErrCodeWidgetJSONMalformed  ErrorCode = "WIDGET_JSON_MALFORMED"
	ErrCodeWidgetTypeUnknown    ErrorCode = "WIDGET_TYPE_UNKNOWN"
	ErrCodeWidgetInsufficient   ErrorCode = "WIDGET_SCHEMA_INSUFFICIENT"

	// Transport errors — surfaced to the caller as an explicit error state,
	// distinct from a normal stream end.
	ErrCodeStreamTransportFailed ErrorCode = "STREAM_TRANSPORT_FAILED"
	ErrCodeStreamAborted         ErrorCode = "STREAM_ABORTED"
	ErrCodeStreamBufferExceeded  ErrorCode = "STREAM_BUFFER_EXCEEDED"

	// Persistence errors — logged and treated as cache miss / no-op.
	ErrCodePersistenceRead  ErrorCode = "PERSISTENCE_READ_FAILED"
	ErrCodePersistenceWrite ErrorCode = "PERSISTENCE_WRITE_FAILED"

	ErrCodeSearchIndexFailed ErrorCode = "SEARCH_INDEX_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewWidgetJSONMalformedError reports a widget body that failed to decode.
// Recovered locally: the block degrades to an inline error text segment.
func NewWidgetJSONMalformedError(widgetType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWidgetJSONMalformed,
		Message:   "Widget JSON failed to parse",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"widgetType": widgetType},
		Timestamp: time.Now().UTC(),
	}
}

// NewWidgetTypeUnknownError reports a marker id outside the known set.
func NewWidgetTypeUnknownError(widgetType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWidgetTypeUnknown,
		Message:   "Unknown widget type",
		Details:   fmt.Sprintf("widgetType: %s", widgetType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewWidgetInsufficientError reports normalized data that failed the
// per-type sufficiency check and will render as a placeholder.
func NewWidgetInsufficientError(widgetType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWidgetInsufficient,
		Message:   "Widget lacks the minimum fields required to render",
		Details:   fmt.Sprintf("widgetType: %s", widgetType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStreamTransportError reports a network failure mid-stream. Partial text
// stays visible but is marked incomplete; retry is the caller's call.
func NewStreamTransportError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStreamTransportFailed,
		Message:   "Transport failure mid-stream",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStreamAbortedError reports consumer-initiated cancellation.
func NewStreamAbortedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeStreamAborted,
		Message:   "Stream aborted by consumer",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStreamBufferExceededError reports a message buffer past the configured
// cap; the cumulative-reparse design assumes bounded buffers.
func NewStreamBufferExceededError(size, limit int) *StandardError {
	return &StandardError{
		Code:      ErrCodeStreamBufferExceeded,
		Message:   "Stream buffer exceeded configured limit",
		Details:   fmt.Sprintf("size: %d, limit: %d", size, limit),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceReadError reports a store read failure, treated as a miss.
func NewPersistenceReadError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceRead,
		Message:   "Persistence read failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"key": key},
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceWriteError reports a store write failure, treated as a no-op.
func NewPersistenceWriteError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceWrite,
		Message:   "Persistence write failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"key": key},
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchIndexError reports a conversation indexing failure; search is an
// enhancement, so this never reaches the user.
func NewSearchIndexError(contextAction string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchIndexFailed,
		Message:   "Conversation search indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"contextAction": contextAction},
		Timestamp: time.Now().UTC(),
	}
}
