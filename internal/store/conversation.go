// internal/store/conversation.go
package store

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"ziyara-stream/internal/common/database"
	cmerrors "ziyara-stream/internal/common/errors"
	"ziyara-stream/internal/common/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MessageRole is the author of a stored message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// StoredMessage is one message in a conversation record.
type StoredMessage struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// StoredConversation is the single conversation record for a context key.
type StoredConversation struct {
	ID            string          `json:"id"`
	ContextAction string          `json:"contextAction"`
	Messages      []StoredMessage `json:"messages"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ConversationStore persists ordered message lists keyed by context. One
// record exists per distinct context key; the trailing assistant message may
// be replaced in place while its stream is still arriving. A secondary index
// set tracks every known context key for listing.
type ConversationStore struct {
	redis  *database.RedisClient
	logger logger.Logger
}

func NewConversationStore(redis *database.RedisClient, log logger.Logger) *ConversationStore {
	return &ConversationStore{
		redis:  redis,
		logger: log.WithFields(map[string]interface{}{"store": "conversation"}),
	}
}

// Load returns the conversation for a context key, or nil when none exists.
func (s *ConversationStore) Load(ctx context.Context, contextAction string) (*StoredConversation, error) {
	raw, err := s.redis.Get(ctx, conversationKey(contextAction))
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, cmerrors.NewPersistenceReadError(conversationKey(contextAction), err)
	}

	var conv StoredConversation
	if err := json.Unmarshal([]byte(raw), &conv); err != nil {
		return nil, cmerrors.NewPersistenceReadError(conversationKey(contextAction), err)
	}
	return &conv, nil
}

// AddMessage appends a message to the context's conversation, creating the
// record on first use, and stamps timestamps.
func (s *ConversationStore) AddMessage(ctx context.Context, contextAction string, role MessageRole, content string) (*StoredConversation, error) {
	now := time.Now().UTC()

	conv, err := s.Load(ctx, contextAction)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		conv = &StoredConversation{
			ID:            uuid.NewString(),
			ContextAction: contextAction,
			Messages:      []StoredMessage{},
			CreatedAt:     now,
		}
	}

	conv.Messages = append(conv.Messages, StoredMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	conv.UpdatedAt = now

	if err := s.save(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// UpdateLastAssistantMessage replaces (not appends) the content of the
// trailing assistant message, called once per chunk during streaming. It is
// a no-op when the trailing message is not an assistant message, which
// guards against overwriting a user message on out-of-order calls.
func (s *ConversationStore) UpdateLastAssistantMessage(ctx context.Context, contextAction, content string) error {
	conv, err := s.Load(ctx, contextAction)
	if err != nil {
		return err
	}
	if conv == nil || len(conv.Messages) == 0 {
		return nil
	}

	last := len(conv.Messages) - 1
	if conv.Messages[last].Role != RoleAssistant {
		return nil
	}

	conv.Messages[last].Content = content
	conv.UpdatedAt = time.Now().UTC()
	return s.save(ctx, conv)
}

// Clear removes the conversation record and drops its index entry.
func (s *ConversationStore) Clear(ctx context.Context, contextAction string) error {
	if err := s.redis.Del(ctx, conversationKey(contextAction)); err != nil {
		return err
	}
	return s.redis.SRem(ctx, conversationIndexKey, contextAction)
}

// ListAll returns every stored conversation, most recently updated first.
// Unreadable records are skipped with a log line rather than failing the
// whole listing.
func (s *ConversationStore) ListAll(ctx context.Context) ([]*StoredConversation, error) {
	keys, err := s.redis.SMembers(ctx, conversationIndexKey)
	if err != nil {
		return nil, err
	}

	conversations := make([]*StoredConversation, 0, len(keys))
	for _, contextAction := range keys {
		conv, err := s.Load(ctx, contextAction)
		if err != nil {
			s.logger.WithError(err).Warn("skipping unreadable conversation",
				map[string]interface{}{"contextAction": contextAction})
			continue
		}
		if conv != nil {
			conversations = append(conversations, conv)
		}
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

func (s *ConversationStore) save(ctx context.Context, conv *StoredConversation) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, conversationKey(conv.ContextAction), string(raw), 0); err != nil {
		return cmerrors.NewPersistenceWriteError(conversationKey(conv.ContextAction), err)
	}
	if err := s.redis.SAdd(ctx, conversationIndexKey, conv.ContextAction); err != nil {
		return cmerrors.NewPersistenceWriteError(conversationIndexKey, err)
	}
	return nil
}
