package store

import (
	"context"
	"testing"
	"time"

	"ziyara-stream/internal/common/database"
	cmerrors "ziyara-stream/internal/common/errors"
	"ziyara-stream/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupRedis(t *testing.T) *database.RedisClient {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return &database.RedisClient{Client: redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})}
}

func setupWidgetStateStore(t *testing.T) *WidgetStateStore {
	return NewWidgetStateStore(setupRedis(t), logger.NewTestLogger(t))
}

func setupConversationStore(t *testing.T) *ConversationStore {
	return NewConversationStore(setupRedis(t), logger.NewTestLogger(t))
}

// ==========================
// Slug / Key Tests
// ==========================

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Packing List", "packing-list"},
		{"punctuation collapsed", "Day 1: Arrival & Check-in!", "day-1-arrival-check-in"},
		{"already safe", "tawaf-guide", "tawaf-guide"},
		{"empty falls back", "", "widget"},
		{"only symbols falls back", "!!!", "widget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestSlugify_Deterministic(t *testing.T) {
	assert.Equal(t, Slugify("Umrah Checklist"), Slugify("Umrah Checklist"))
}

func TestWidgetID(t *testing.T) {
	assert.Equal(t, "checklist-packing-list", WidgetID("checklist", "Packing List"))
}

// ==========================
// Widget State Store Tests
// ==========================

func TestWidgetStateStore_LoadMissingReturnsInitialState(t *testing.T) {
	s := setupWidgetStateStore(t)

	state := s.Load(context.Background(), "umrah-planning", "checklist-packing")
	require.NotNil(t, state)
	assert.Empty(t, state)
}

func TestWidgetStateStore_SaveThenLoad(t *testing.T) {
	s := setupWidgetStateStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "umrah-planning", "checklist-packing", map[string]bool{"a": true}))

	state := s.Load(ctx, "umrah-planning", "checklist-packing")
	assert.Equal(t, map[string]bool{"a": true}, state)
}

// Last-write-wins: a second save fully replaces the first, no merge.
func TestWidgetStateStore_LastWriteWins(t *testing.T) {
	s := setupWidgetStateStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "umrah-planning", "checklist-packing", map[string]bool{"a": true}))
	require.NoError(t, s.Save(ctx, "umrah-planning", "checklist-packing", map[string]bool{"a": false, "b": true}))

	state := s.Load(ctx, "umrah-planning", "checklist-packing")
	assert.Equal(t, map[string]bool{"a": false, "b": true}, state)
}

func TestWidgetStateStore_KeysAreScoped(t *testing.T) {
	s := setupWidgetStateStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "ctx-one", "checklist-packing", map[string]bool{"a": true}))

	assert.Empty(t, s.Load(ctx, "ctx-two", "checklist-packing"))
	assert.Empty(t, s.Load(ctx, "ctx-one", "checklist-other"))
}

func TestWidgetStateStore_Clear(t *testing.T) {
	s := setupWidgetStateStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "ctx", "widget", map[string]bool{"a": true}))
	require.NoError(t, s.Clear(ctx, "ctx", "widget"))

	assert.Empty(t, s.Load(ctx, "ctx", "widget"))
}

func TestWidgetStateStore_CorruptedStateDegradesToInitial(t *testing.T) {
	redisClient := setupRedis(t)
	s := NewWidgetStateStore(redisClient, logger.NewNoOpLogger())
	ctx := context.Background()

	require.NoError(t, redisClient.Set(ctx, widgetStateKey("ctx", "widget"), "{not json", 0))

	state := s.Load(ctx, "ctx", "widget")
	require.NotNil(t, state)
	assert.Empty(t, state)
}

func TestWidgetStateStore_RedisDownDegrades(t *testing.T) {
	redisClient := setupRedis(t)
	s := NewWidgetStateStore(redisClient, logger.NewNoOpLogger())
	ctx := context.Background()
	require.NoError(t, redisClient.Close())

	// Reads degrade to initial state, writes report a persistence error.
	assert.Empty(t, s.Load(ctx, "ctx", "widget"))

	err := s.Save(ctx, "ctx", "widget", map[string]bool{"item-1": true})
	require.Error(t, err)

	var stdErr *cmerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, cmerrors.ErrCodePersistenceWrite, stdErr.Code)
}

// ==========================
// Conversation Store Tests
// ==========================

func TestConversationStore_LoadMissingReturnsNil(t *testing.T) {
	s := setupConversationStore(t)

	conv, err := s.Load(context.Background(), "no-such-context")
	require.NoError(t, err)
	assert.Nil(t, conv)
}

func TestConversationStore_RedisDownReportsReadError(t *testing.T) {
	redisClient := setupRedis(t)
	s := NewConversationStore(redisClient, logger.NewNoOpLogger())
	require.NoError(t, redisClient.Close())

	_, err := s.Load(context.Background(), "umrah-packing")
	require.Error(t, err)

	var stdErr *cmerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, cmerrors.ErrCodePersistenceRead, stdErr.Code)
}

func TestConversationStore_AddMessageCreatesRecord(t *testing.T) {
	s := setupConversationStore(t)
	ctx := context.Background()

	conv, err := s.AddMessage(ctx, "umrah-planning", RoleUser, "What should I pack?")
	require.NoError(t, err)
	require.NotNil(t, conv)

	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "umrah-planning", conv.ContextAction)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, RoleUser, conv.Messages[0].Role)
	assert.NotEmpty(t, conv.Messages[0].ID)
	assert.False(t, conv.CreatedAt.IsZero())
	assert.False(t, conv.UpdatedAt.IsZero())
}

func TestConversationStore_AddMessageAppendsToSameRecord(t *testing.T) {
	s := setupConversationStore(t)
	ctx := context.Background()

	first, err := s.AddMessage(ctx, "umrah-planning", RoleUser, "hi")
	require.NoError(t, err)
	second, err := s.AddMessage(ctx, "umrah-planning", RoleAssistant, "hello")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.Messages, 2)
}

// Streaming semantics: the trailing assistant message is replaced in place,
// chunk after chunk, leaving exactly one final message body.
func TestConversationStore_UpdateLastAssistantMessage(t *testing.T) {
	s := setupConversationStore(t)
	ctx := context.Background()

	_, err := s.AddMessage(ctx, "ctx", RoleUser, "hi")
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, "ctx", RoleAssistant, "")
	require.NoError(t, err)

	require.NoError(t, s.UpdateLastAssistantMessage(ctx, "ctx", "partial"))
	require.NoError(t, s.UpdateLastAssistantMessage(ctx, "ctx", "final"))

	conv, err := s.Load(ctx, "ctx")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "final", conv.Messages[1].Content)
}

func TestConversationStore_UpdateLastAssistantMessage_NoOpWhenTailIsUser(t *testing.T) {
	s := setupConversationStore(t)
	ctx := context.Background()

	_, err := s.AddMessage(ctx, "ctx", RoleUser, "hi")
	require.NoError(t, err)

	require.NoError(t, s.UpdateLastAssistantMessage(ctx, "ctx", "should not land"))

	conv, err := s.Load(ctx, "ctx")
	require.NoError(t, err)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "hi", conv.Messages[0].Content)
}

func TestConversationStore_UpdateLastAssistantMessage_NoOpWhenEmpty(t *testing.T) {
	s := setupConversationStore(t)

	assert.NoError(t, s.UpdateLastAssistantMessage(context.Background(), "missing", "x"))
}

func TestConversationStore_Clear(t *testing.T) {
	s := setupConversationStore(t)
	ctx := context.Background()

	_, err := s.AddMessage(ctx, "ctx", RoleUser, "hi")
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx, "ctx"))

	conv, err := s.Load(ctx, "ctx")
	require.NoError(t, err)
	assert.Nil(t, conv)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestConversationStore_ListAllSortedByUpdatedAt(t *testing.T) {
	s := setupConversationStore(t)
	ctx := context.Background()

	_, err := s.AddMessage(ctx, "older", RoleUser, "first")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = s.AddMessage(ctx, "newer", RoleUser, "second")
	require.NoError(t, err)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "newer", all[0].ContextAction)
	assert.Equal(t, "older", all[1].ContextAction)
}
