// internal/widgets/coerce.go
//
// Coercion helpers shared by the per-type normalizers. The upstream text
// generator is untrusted and non-deterministic: fields may be missing,
// mistyped, or spelled with alternate names at any depth. Every helper takes
// the first present, correctly-typed value among a list of alias keys and
// falls back to a default otherwise.
package widgets

import (
	"fmt"
	"sync/atomic"
)

// idCounter disambiguates synthesized ids within a process. Ids only need to
// be unique enough for list keying, not stable across regenerations.
var idCounter atomic.Uint64

// synthID composes a deterministic-prefix id: type prefix, positional index,
// and a monotonic disambiguator.
func synthID(prefix string, index int) string {
	return fmt.Sprintf("%s-%d-%d", prefix, index, idCounter.Add(1))
}

// asObject reports v as a JSON object, tolerating nil and non-object values.
func asObject(v interface{}) (map[string]interface{}, bool) {
	obj, ok := v.(map[string]interface{})
	return obj, ok && obj != nil
}

// getString returns the first non-empty string among the alias keys.
func getString(obj map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// getStringOr is getString with an explicit fallback.
func getStringOr(obj map[string]interface{}, fallback string, keys ...string) string {
	if s := getString(obj, keys...); s != "" {
		return s
	}
	return fallback
}

// getNumber returns the first numeric value among the alias keys. JSON
// numbers decode to float64; other types contribute nothing.
func getNumber(obj map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		if n, ok := obj[k].(float64); ok {
			return n, true
		}
	}
	return 0, false
}

// getInt narrows getNumber to an int with a fallback.
func getInt(obj map[string]interface{}, fallback int, keys ...string) int {
	if n, ok := getNumber(obj, keys...); ok {
		return int(n)
	}
	return fallback
}

// getBool returns the first bool among the alias keys, defaulting false.
func getBool(obj map[string]interface{}, keys ...string) bool {
	for _, k := range keys {
		if b, ok := obj[k].(bool); ok {
			return b
		}
	}
	return false
}

// getList returns the first array among the alias keys, or nil.
func getList(obj map[string]interface{}, keys ...string) []interface{} {
	for _, k := range keys {
		if list, ok := obj[k].([]interface{}); ok {
			return list
		}
	}
	return nil
}

// getStringList collects the string elements of the first array among the
// alias keys. Non-string elements are skipped, absent arrays become [].
func getStringList(obj map[string]interface{}, keys ...string) []string {
	out := []string{}
	for _, v := range getList(obj, keys...) {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// itemID prefers a source-supplied string id and synthesizes one otherwise.
func itemID(obj map[string]interface{}, prefix string, index int) string {
	if id := getString(obj, "id"); id != "" {
		return id
	}
	return synthID(prefix, index)
}
