// internal/widgets/parser.go
package widgets

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	cmerrors "ziyara-stream/internal/common/errors"
)

// Marker tokens framing a widget block. These substrings are reserved: the
// protocol defines no escaping, so literal occurrences in prose or inside
// widget JSON string values are read as protocol syntax.
const (
	OpenMarkerPrefix = "<<<WIDGET:"
	CloseMarker      = "<<<END_WIDGET>>>"
)

// widgetPattern matches one complete widget block. The body is matched
// non-greedily so sibling blocks never merge; the grammar does not nest.
var widgetPattern = regexp.MustCompile(`(?s)<<<WIDGET:(\w+)>>>(.*?)<<<END_WIDGET>>>`)

// Parse splits a complete text buffer into ordered text/widget segments.
//
// Malformed widget JSON is fail-soft: the block degrades to a visible inline
// error text segment and parsing continues with the next block. A buffer with
// no widget blocks becomes a single text segment.
func Parse(content string) ParsedContent {
	var result ParsedContent

	matches := widgetPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		if trimmed := strings.TrimSpace(content); trimmed != "" {
			result.Segments = append(result.Segments, ContentSegment{
				Kind:    SegmentText,
				Content: trimmed,
			})
		}
		result.TextOnly = joinTextSegments(result.Segments)
		return result
	}

	last := 0
	for _, m := range matches {
		// m: [start end typeStart typeEnd bodyStart bodyEnd]
		if text := strings.TrimSpace(content[last:m[0]]); text != "" {
			result.Segments = append(result.Segments, ContentSegment{
				Kind:    SegmentText,
				Content: text,
			})
		}

		rawType := content[m[2]:m[3]]
		body := strings.TrimSpace(content[m[4]:m[5]])

		var data map[string]interface{}
		if err := json.Unmarshal([]byte(body), &data); err != nil {
			result.Segments = append(result.Segments, ContentSegment{
				Kind:    SegmentText,
				Content: fmt.Sprintf("[Failed to load %s widget]", rawType),
			})
			result.Malformed = append(result.Malformed, MalformedBlock{
				WidgetType: rawType,
				Err:        cmerrors.NewWidgetJSONMalformedError(rawType, err),
			})
		} else {
			widgetType, _ := ParseWidgetType(rawType)
			result.Segments = append(result.Segments, ContentSegment{
				Kind:       SegmentWidget,
				WidgetType: widgetType,
				Data:       data,
				Raw:        body,
			})
			result.Widgets = append(result.Widgets, ParsedWidget{
				Type: widgetType,
				Data: data,
			})
		}

		last = m[1]
	}

	if trailing := strings.TrimSpace(content[last:]); trailing != "" {
		result.Segments = append(result.Segments, ContentSegment{
			Kind:    SegmentText,
			Content: trailing,
		})
	}

	result.HasWidgets = len(result.Widgets) > 0
	result.TextOnly = joinTextSegments(result.Segments)
	return result
}

func joinTextSegments(segments []ContentSegment) string {
	var parts []string
	for _, seg := range segments {
		if seg.Kind == SegmentText {
			parts = append(parts, seg.Content)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
