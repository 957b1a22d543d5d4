package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLState reports the expiry of a key as the TTL command sees it.
type TTLState struct {
	Seconds  int64
	NoExpiry bool
	Missing  bool
}

// Store is the networked key-value backend behind the cache. Every call may
// fail on transport errors; such failures are returned here and swallowed by
// the layers above, which degrade to calling the producer directly.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set stores the value and, when ttl > 0, its expiry in a single atomic
	// call.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (TTLState, error)
	Delete(ctx context.Context, key string) error
	// DeleteByPattern removes every key matching the glob pattern and
	// returns how many were removed. Zero matches is not an error.
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
}

// RedisStore backs Store with a Redis client.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.rdb.Expire(ctx, key, ttl).Err()
}

func (s *RedisStore) TTL(ctx context.Context, key string) (TTLState, error) {
	d, err := s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return TTLState{}, err
	}
	// go-redis passes the -1/-2 replies through as raw durations.
	switch d {
	case -2:
		return TTLState{Missing: true}, nil
	case -1:
		return TTLState{NoExpiry: true}, nil
	default:
		return TTLState{Seconds: int64(d / time.Second)}, nil
	}
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Unlink(ctx, key).Err()
}

func (s *RedisStore) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return s.rdb.Unlink(ctx, keys...).Result()
}

// Ping reports store reachability, used by the health endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
