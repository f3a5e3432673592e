// internal/store/keys.go
package store

import (
	"fmt"
	"strings"
)

const (
	widgetStateKeyPrefix  = "widget_state"
	conversationKeyPrefix = "conversation"
	conversationIndexKey  = "conversations:index"

	maxSlugLength = 64
)

// Slugify derives a deterministic, storage-safe slug from a widget title.
// Lowercased, runs of non-alphanumeric characters collapse to single
// hyphens, and the result is length-capped.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		slug = "widget"
	}
	return slug
}

// WidgetID derives the stable identifier a widget's interaction state is
// stored under: the type plus a slug of its title.
func WidgetID(widgetType, title string) string {
	return fmt.Sprintf("%s-%s", widgetType, Slugify(title))
}

func widgetStateKey(contextAction, widgetID string) string {
	return fmt.Sprintf("%s:%s:%s", widgetStateKeyPrefix, contextAction, widgetID)
}

func conversationKey(contextAction string) string {
	return fmt.Sprintf("%s:%s", conversationKeyPrefix, contextAction)
}
