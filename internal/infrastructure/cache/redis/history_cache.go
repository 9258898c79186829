package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

// CachedHistory is the tail of a chat as last read from the database.
// Limit is the window it was read with.
type CachedHistory struct {
	Limit    int                  `json:"limit"`
	Messages []domain.ChatMessage `json:"messages"`
}

type HistoryCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewHistoryCache(client *redisv9.Client, ttl time.Duration) *HistoryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &HistoryCache{client: client, ttl: ttl}
}

func (c *HistoryCache) Get(ctx context.Context, chatID string) (*CachedHistory, bool, error) {
	raw, err := c.client.Get(ctx, historyKey(chatID)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get history: %w", err)
	}

	var cached CachedHistory
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached history: %w", err)
	}
	return &cached, true, nil
}

func (c *HistoryCache) Set(ctx context.Context, chatID string, history CachedHistory) error {
	payload, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history cache: %w", err)
	}
	if err := c.client.Set(ctx, historyKey(chatID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set history: %w", err)
	}
	return nil
}

func (c *HistoryCache) Delete(ctx context.Context, chatID string) error {
	if err := c.client.Del(ctx, historyKey(chatID)).Err(); err != nil {
		return fmt.Errorf("redis delete history: %w", err)
	}
	return nil
}

func historyKey(chatID string) string {
	return "chat:history:" + chatID
}
