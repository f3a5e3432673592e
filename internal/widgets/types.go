// Package widgets implements the inline widget protocol used by the chat
// stream: structured, typed data blocks framed by marker tokens inside
// otherwise free-form assistant text. It covers tokenizing a complete or
// partially-arrived buffer into ordered segments, normalizing loosely-typed
// widget JSON into canonical per-type shapes, and validating the result
// before it is handed to a render surface.
package widgets

import (
	cmerrors "ziyara-stream/internal/common/errors"
)

// WidgetType is the closed set of widget discriminants the protocol carries.
type WidgetType string

const (
	TypeItinerary  WidgetType = "itinerary"
	TypeChecklist  WidgetType = "checklist"
	TypeBudget     WidgetType = "budget"
	TypeGuide      WidgetType = "guide"
	TypeDua        WidgetType = "dua"
	TypeRitual     WidgetType = "ritual"
	TypePlaces     WidgetType = "places"
	TypeCrowd      WidgetType = "crowd"
	TypeNavigation WidgetType = "navigation"
	TypeTips       WidgetType = "tips"
)

// AllTypes lists every known widget type in a stable order.
var AllTypes = []WidgetType{
	TypeItinerary,
	TypeChecklist,
	TypeBudget,
	TypeGuide,
	TypeDua,
	TypeRitual,
	TypePlaces,
	TypeCrowd,
	TypeNavigation,
	TypeTips,
}

// ParseWidgetType maps a raw marker id onto the closed enumeration.
// Unrecognized ids return ok=false; the parser still emits their segments
// (the wire contract accepts them) and rejection happens at validation.
func ParseWidgetType(s string) (WidgetType, bool) {
	t := WidgetType(s)
	for _, known := range AllTypes {
		if t == known {
			return t, true
		}
	}
	return t, false
}

// SegmentKind discriminates a ContentSegment.
type SegmentKind string

const (
	SegmentText   SegmentKind = "text"
	SegmentWidget SegmentKind = "widget"
)

// ContentSegment is one ordered unit of parsed content: either literal prose
// or a decoded widget block. Order is document order and is significant.
type ContentSegment struct {
	Kind       SegmentKind            `json:"kind"`
	Content    string                 `json:"content,omitempty"`    // text segments
	WidgetType WidgetType             `json:"widgetType,omitempty"` // widget segments
	Data       map[string]interface{} `json:"data,omitempty"`       // decoded JSON payload
	Raw        string                 `json:"raw,omitempty"`        // original JSON text, kept for diagnostics
}

// MalformedBlock records a widget block whose JSON failed to decode. The
// block itself degrades to inline error text; this record carries the
// decode diagnostics for logging and counters.
type MalformedBlock struct {
	WidgetType string                  `json:"widgetType"`
	Err        *cmerrors.StandardError `json:"err,omitempty"`
}

// ParsedWidget is a widget block lifted out of the segment list.
type ParsedWidget struct {
	Type WidgetType             `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// ParsedContent is the result of a full-content parse.
type ParsedContent struct {
	Segments   []ContentSegment `json:"segments"`
	Widgets    []ParsedWidget   `json:"widgets"`
	HasWidgets bool             `json:"hasWidgets"`
	// TextOnly is the prose-only projection, a lossy view used for search
	// and previews, never for re-rendering.
	TextOnly string `json:"textOnly"`
	// Malformed lists the blocks whose JSON failed to decode.
	Malformed []MalformedBlock `json:"malformed,omitempty"`
}

// StreamingParseResult is the per-chunk view of a partially-arrived buffer.
// When IsComplete is true IncompleteText is empty and CompleteSegments is the
// full parse of the buffer. Otherwise IncompleteText is the suffix starting
// at the last unmatched open marker.
type StreamingParseResult struct {
	CompleteSegments []ContentSegment `json:"completeSegments"`
	IncompleteText   string           `json:"incompleteText"`
	IsComplete       bool             `json:"isComplete"`
	// Malformed lists closed blocks whose JSON failed to decode, carried
	// over from the underlying full parse.
	Malformed []MalformedBlock `json:"malformed,omitempty"`
}
