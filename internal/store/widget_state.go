// internal/store/widget_state.go
package store

import (
	"context"
	"encoding/json"

	"ziyara-stream/internal/common/database"
	cmerrors "ziyara-stream/internal/common/errors"
	"ziyara-stream/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// WidgetStateStore persists small pieces of interactive widget state (which
// checklist items are checked) keyed by (contextAction, widgetID). Updates
// are last-write-wins; exactly one UI surface owns a widget instance at a
// time, so no merge semantics are needed. State is an enhancement, not a
// correctness requirement: read failures degrade to initial state and write
// failures to a logged no-op.
type WidgetStateStore struct {
	redis  *database.RedisClient
	logger logger.Logger
}

func NewWidgetStateStore(redis *database.RedisClient, log logger.Logger) *WidgetStateStore {
	return &WidgetStateStore{
		redis:  redis,
		logger: log.WithFields(map[string]interface{}{"store": "widget_state"}),
	}
}

// Load returns the persisted state for (contextAction, widgetID), or the
// initial empty state when nothing is stored or the read fails.
func (s *WidgetStateStore) Load(ctx context.Context, contextAction, widgetID string) map[string]bool {
	key := widgetStateKey(contextAction, widgetID)

	raw, err := s.redis.Get(ctx, key)
	if err != nil {
		if err != redis.Nil {
			s.logger.WithError(cmerrors.NewPersistenceReadError(key, err)).
				Warn("widget state read failed, using initial state", nil)
		}
		return map[string]bool{}
	}

	var state map[string]bool
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		s.logger.WithError(err).Warn("widget state corrupted, using initial state",
			map[string]interface{}{"key": key})
		return map[string]bool{}
	}
	if state == nil {
		state = map[string]bool{}
	}
	return state
}

// Save replaces the persisted state for (contextAction, widgetID).
func (s *WidgetStateStore) Save(ctx context.Context, contextAction, widgetID string, state map[string]bool) error {
	key := widgetStateKey(contextAction, widgetID)

	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, key, string(raw), 0); err != nil {
		writeErr := cmerrors.NewPersistenceWriteError(key, err)
		s.logger.WithError(writeErr).Warn("widget state write failed", nil)
		return writeErr
	}
	return nil
}

// Clear removes the persisted state for (contextAction, widgetID).
func (s *WidgetStateStore) Clear(ctx context.Context, contextAction, widgetID string) error {
	return s.redis.Del(ctx, widgetStateKey(contextAction, widgetID))
}
