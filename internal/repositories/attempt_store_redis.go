package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/denimhub/dashboard/internal/models"
	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "login_attempts:"

// RedisAttemptStore shares attempt records between processes. Expiry is delegated to Redis TTLs.
type RedisAttemptStore struct {
	client redis.Cmdable
}

// NewRedisAttemptStore creates a new RedisAttemptStore
func NewRedisAttemptStore(client redis.Cmdable) *RedisAttemptStore {
	return &RedisAttemptStore{client: client}
}

func (s *RedisAttemptStore) Get(ctx context.Context, key string) (*models.LoginAttemptRecord, error) {
	data, err := s.client.Get(ctx, attemptKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read attempt record: %w", err)
	}

	var record models.LoginAttemptRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode attempt record: %w", err)
	}

	return &record, nil
}

func (s *RedisAttemptStore) Set(ctx context.Context, key string, record *models.LoginAttemptRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode attempt record: %w", err)
	}

	if err := s.client.Set(ctx, attemptKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write attempt record: %w", err)
	}

	return nil
}

func (s *RedisAttemptStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, attemptKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete attempt record: %w", err)
	}
	return nil
}
