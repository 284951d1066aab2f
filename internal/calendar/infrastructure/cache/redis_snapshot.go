// Package cache mirrors the calendar event cache into Redis so several
// processes reading the same calendar share one backend fetch.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/calendar/application"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "slotwise:calendar:"

// RedisSnapshotStore implements application.SnapshotStore on a single Redis key.
type RedisSnapshotStore struct {
	client *redis.Client
	key    string
}

// NewRedisSnapshotStore creates a store keyed by calendarID.
func NewRedisSnapshotStore(client *redis.Client, calendarID string) *RedisSnapshotStore {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &RedisSnapshotStore{
		client: client,
		key:    keyPrefix + calendarID + ":events",
	}
}

// Key returns the Redis key holding the snapshot.
func (s *RedisSnapshotStore) Key() string {
	return s.key
}

// Load returns the mirrored snapshot, or nil when none is stored.
func (s *RedisSnapshotStore) Load(ctx context.Context) (*application.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	var snapshot application.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// Store writes snapshot with the given expiry.
func (s *RedisSnapshotStore) Store(ctx context.Context, snapshot application.Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Clear removes the mirrored snapshot.
func (s *RedisSnapshotStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.key, err)
	}
	return nil
}

var _ application.SnapshotStore = (*RedisSnapshotStore)(nil)
