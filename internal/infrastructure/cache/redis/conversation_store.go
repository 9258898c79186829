package redis

import (
	"context"
	"log/slog"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/ports"
)

type historyCache interface {
	Get(ctx context.Context, chatID string) (*CachedHistory, bool, error)
	Set(ctx context.Context, chatID string, history CachedHistory) error
	Delete(ctx context.Context, chatID string) error
}

// ConversationStore serves recent chat history from the cache and
// invalidates it on every append and chat deletion. Cache failures degrade to the wrapped
// store.
type ConversationStore struct {
	ports.ConversationStore
	cache historyCache
}

func NewConversationStore(next ports.ConversationStore, cache historyCache) *ConversationStore {
	return &ConversationStore{ConversationStore: next, cache: cache}
}

func (s *ConversationStore) AppendMessage(ctx context.Context, message *domain.ChatMessage) error {
	if err := s.ConversationStore.AppendMessage(ctx, message); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, message.ChatID); err != nil {
		slog.Warn("history_cache_invalidate_failed", "chat_id", message.ChatID, "error", err)
	}
	return nil
}

func (s *ConversationStore) DeleteChat(ctx context.Context, ownerID, chatID string) error {
	if err := s.ConversationStore.DeleteChat(ctx, ownerID, chatID); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, chatID); err != nil {
		slog.Warn("history_cache_invalidate_failed", "chat_id", chatID, "error", err)
	}
	return nil
}

func (s *ConversationStore) ListRecentMessages(ctx context.Context, chatID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}

	cached, ok, err := s.cache.Get(ctx, chatID)
	if err != nil {
		slog.Warn("history_cache_read_failed", "chat_id", chatID, "error", err)
	}
	if ok && cached.Limit >= limit {
		return tail(cached.Messages, limit), nil
	}

	messages, err := s.ConversationStore.ListRecentMessages(ctx, chatID, limit)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, chatID, CachedHistory{Limit: limit, Messages: messages}); err != nil {
		slog.Warn("history_cache_write_failed", "chat_id", chatID, "error", err)
	}
	return messages, nil
}

func tail(messages []domain.ChatMessage, limit int) []domain.ChatMessage {
	if len(messages) <= limit {
		return messages
	}
	return messages[len(messages)-limit:]
}
