// internal/widgets/streaming.go
package widgets

import (
	"regexp"
	"strings"
)

// pendingTypePattern extracts the widget id from a still-open marker at the
// head of the incomplete suffix. The marker head itself may be truncated
// mid-token, in which case no type is recoverable yet.
var pendingTypePattern = regexp.MustCompile(`<<<WIDGET:(\w+)`)

// ParseStreaming evaluates a partially-arrived buffer. It is called anew with
// the cumulative buffer on every chunk arrival, which keeps it pure and
// idempotent; buffers are bounded to a few KB so the repeated O(n) scans are
// acceptable.
//
// A widget block counts as in flight when the last open marker sits after the
// last close marker (or no close marker exists). Everything strictly before
// that open marker is by construction fully closed and is handed to Parse;
// the suffix from the open marker on is returned untouched as IncompleteText.
// Complete segments are therefore only ever emitted once their close marker
// has fully arrived, so no partial JSON is ever parsed and no partial widget
// is ever rendered.
func ParseStreaming(buffer string) StreamingParseResult {
	lastOpen := strings.LastIndex(buffer, OpenMarkerPrefix)
	lastClose := strings.LastIndex(buffer, CloseMarker)

	if lastOpen != -1 && lastOpen > lastClose {
		prefix := Parse(buffer[:lastOpen])
		return StreamingParseResult{
			CompleteSegments: prefix.Segments,
			IncompleteText:   buffer[lastOpen:],
			IsComplete:       false,
			Malformed:        prefix.Malformed,
		}
	}

	full := Parse(buffer)
	return StreamingParseResult{
		CompleteSegments: full.Segments,
		IncompleteText:   "",
		IsComplete:       true,
		Malformed:        full.Malformed,
	}
}

// PendingWidgetType recovers the widget type of an in-flight block from the
// incomplete suffix. It is used only to pick a contextual loading placeholder,
// never to render data. Returns ok=false when the suffix holds no readable
// type yet, or the type is not a known one.
func PendingWidgetType(incompleteText string) (WidgetType, bool) {
	m := pendingTypePattern.FindStringSubmatch(incompleteText)
	if m == nil {
		return "", false
	}
	return ParseWidgetType(m[1])
}
