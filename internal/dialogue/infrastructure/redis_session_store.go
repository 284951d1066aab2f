package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/dialogue/application"
	"github.com/felixgeelhaar/slotwise/internal/dialogue/domain"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "slotwise:session:"

// RedisSessionStore keeps sessions in Redis so any server process can
// continue a conversation.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a new RedisSessionStore.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

// SessionKey returns the Redis key for session id.
func SessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Load returns the state saved under id.
func (s *RedisSessionStore) Load(ctx context.Context, id string) (*domain.ConversationState, error) {
	data, err := s.client.Get(ctx, SessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session %s: %w", id, err)
	}
	return decodeState(data)
}

// Save stores state under id and restarts its expiry.
func (s *RedisSessionStore) Save(ctx context.Context, id string, state *domain.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, SessionKey(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", id, err)
	}
	return nil
}

// Delete removes id.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, SessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del session %s: %w", id, err)
	}
	return nil
}

var _ application.SessionStore = (*RedisSessionStore)(nil)
