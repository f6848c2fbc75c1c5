package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	"github.com/go-redis/redis/v8"
	"time"
)

const sessionKeyPrefix = "hifi:session:"

// RedisSessionState keeps sessions in Redis as JSON so several bot instances can share them.
type RedisSessionState struct {
	client *redis.Client
	ttl    time.Duration // 0 keeps keys forever
}

// NewRedisSessionState wraps an existing Redis client.
func NewRedisSessionState(client *redis.Client, ttl time.Duration) *RedisSessionState {
	return &RedisSessionState{client: client, ttl: ttl}
}

// Get returns the stored session or an empty one if the key does not exist.
func (s *RedisSessionState) Get(ctx context.Context, conversationID string) (models.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+conversationID).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Session{}, nil
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to get session %s: %w", conversationID, err)
	}
	var session models.Session
	if err = json.Unmarshal(data, &session); err != nil {
		return models.Session{}, fmt.Errorf("failed to unmarshal session %s: %w", conversationID, err)
	}
	return session, nil
}

// Put overwrites the session and refreshes its TTL.
func (s *RedisSessionState) Put(ctx context.Context, conversationID string, session models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", conversationID, err)
	}
	if err = s.client.Set(ctx, sessionKeyPrefix+conversationID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to put session %s: %w", conversationID, err)
	}
	return nil
}
