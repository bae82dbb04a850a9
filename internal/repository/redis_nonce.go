package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisNonceStore struct {
	client *RedisClient
	prefix string
}

func NewRedisNonceStore(client *RedisClient, prefix string) *RedisNonceStore {
	if prefix == "" {
		prefix = "opa:nonce:"
	}
	return &RedisNonceStore{client: client, prefix: prefix}
}

// Put stores token with its binding until ttl elapses.
func (s *RedisNonceStore) Put(ctx context.Context, token, binding string, ttl time.Duration) error {
	return s.client.Client.Set(ctx, s.prefix+token, binding, ttl).Err()
}

// Get returns the binding for token, or "" when it is unknown or expired.
func (s *RedisNonceStore) Get(ctx context.Context, token string) (string, error) {
	val, err := s.client.Client.Get(ctx, s.prefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}
