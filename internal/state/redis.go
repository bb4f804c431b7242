package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"voipshop/internal/domain"
)

// Connect initializes a Redis client from a redis:// URL or host:port.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis keeps each key under voipshop:<session>:<key>. A positive ttl is
// refreshed on every write so idle carts expire.
func NewRedis(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func redisKey(session, key string) string {
	return "voipshop:" + session + ":" + key
}

func (s *redisStore) Get(ctx context.Context, session, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, redisKey(session, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *redisStore) Put(ctx context.Context, session, key string, value []byte) error {
	return s.client.Set(ctx, redisKey(session, key), value, s.ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, session string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, redisKey(session, k))
	}
	return s.client.Del(ctx, full...).Err()
}

func (s *redisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
