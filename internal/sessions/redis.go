package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hirescope/hirescope/internal/models"
)

const redisKeyPrefix = "hirescope:conversation:"

// redisClient is the subset of *redis.Client used by RedisStore.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps conversations as JSON strings with a TTL.
type RedisStore struct {
	client redisClient
	ttl    time.Duration
}

// NewRedisStore creates a store over client. Every Save resets the key's TTL.
func NewRedisStore(client redisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func conversationKey(id string) string {
	return redisKeyPrefix + id
}

// Get loads and decodes the conversation.
func (s *RedisStore) Get(ctx context.Context, id string) (*models.Conversation, error) {
	raw, err := s.client.Get(ctx, conversationKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("redis get conversation: %w", err)
	}

	var conv models.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", id, err)
	}

	return &conv, nil
}

// Save encodes conv and writes it with the store TTL.
func (s *RedisStore) Save(ctx context.Context, conv *models.Conversation) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation %s: %w", conv.ID, err)
	}

	if err := s.client.Set(ctx, conversationKey(conv.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set conversation: %w", err)
	}

	return nil
}

var _ Store = (*RedisStore)(nil)
