// internal/widgets/validate.go
package widgets

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Validation is a hard backstop distinct from normalization: normalization
// always succeeds, but its result may still lack the minimum a renderer
// needs. Each type's sufficiency rule is a small JSON Schema compiled once at
// package init — a non-empty title plus a non-empty primary collection, and
// for navigation the endpoints as well.

const (
	titleRule = `"title": {"type": "string", "minLength": 1}`
	textRule  = `{"type": "string", "minLength": 1}`
)

func sufficiencySchema(collection string, extra string) string {
	required := fmt.Sprintf(`["title", %q]`, collection)
	props := fmt.Sprintf(`%s, %q: {"type": "array", "minItems": 1}`, titleRule, collection)
	if extra != "" {
		props += ", " + extra
	}
	return fmt.Sprintf(`{"type": "object", "properties": {%s}, "required": %s}`, props, required)
}

var sufficiencySchemas = map[WidgetType]*gojsonschema.Schema{}

func init() {
	raw := map[WidgetType]string{
		TypeItinerary: sufficiencySchema("days", ""),
		TypeChecklist: sufficiencySchema("items", ""),
		TypeBudget:    sufficiencySchema("breakdown", ""),
		TypeGuide:     sufficiencySchema("steps", ""),
		TypeDua:       sufficiencySchema("duas", ""),
		TypeRitual:    sufficiencySchema("steps", ""),
		TypePlaces:    sufficiencySchema("places", ""),
		TypeCrowd:     sufficiencySchema("forecast", ""),
		TypeNavigation: fmt.Sprintf(
			`{"type": "object", "properties": {%s, "from": %s, "to": %s, "steps": {"type": "array", "minItems": 1}}, "required": ["title", "from", "to", "steps"]}`,
			titleRule, textRule, textRule,
		),
		TypeTips: sufficiencySchema("tips", ""),
	}

	for t, schemaJSON := range raw {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
		if err != nil {
			panic(fmt.Sprintf("widgets: bad sufficiency schema for %s: %v", t, err))
		}
		sufficiencySchemas[t] = schema
	}
}

// Validate reports whether normalized data carries the minimum fields needed
// to render the given widget type safely. Unknown types and nil data are
// never renderable. A widget failing validation is never rendered; callers
// substitute a generic failed-to-load state instead.
func Validate(t WidgetType, data NormalizedData) bool {
	schema, ok := sufficiencySchemas[t]
	if !ok || data == nil {
		return false
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return false
	}
	return result.Valid()
}
