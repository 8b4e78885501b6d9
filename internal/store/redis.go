package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the identity cache with Redis so a host restart keeps the
// remembered wallet.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "framelink:identity:",
	}
}

func (s *RedisStore) key(partnerID string) string {
	return s.prefix + partnerID
}

func (s *RedisStore) SaveIdentity(ctx context.Context, partnerID, address string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(partnerID), address, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) LoadIdentity(ctx context.Context, partnerID string) (string, error) {
	address, err := s.client.Get(ctx, s.key(partnerID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return address, nil
}

func (s *RedisStore) ClearIdentity(ctx context.Context, partnerID string) error {
	if err := s.client.Del(ctx, s.key(partnerID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
