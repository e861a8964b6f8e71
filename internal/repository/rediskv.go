package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV implements KV on top of Redis. Expiry is enforced by Redis itself.
type RedisKV struct {
	rdb *redis.Client

	prefix string

	// scanCount is the COUNT hint passed to SCAN
	scanCount int64
}

type RedisKVOption func(*RedisKV)

// WithKeyPrefix namespaces every key, e.g. "telemetry" stores "telemetry:stats:requests_24h".
func WithKeyPrefix(prefix string) RedisKVOption {
	return func(s *RedisKV) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithScanCount(n int64) RedisKVOption {
	return func(s *RedisKV) { s.scanCount = n }
}

func NewRedisKV(rdb *redis.Client, opts ...RedisKVOption) *RedisKV {
	s := &RedisKV{
		rdb:       rdb,
		scanCount: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisKV) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

func (s *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisKV) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// List walks the keyspace with SCAN so large namespaces do not block the server.
func (s *RedisKV) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	iter := s.rdb.Scan(ctx, 0, s.key(prefix)+"*", s.scanCount).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if s.prefix != "" {
			k = strings.TrimPrefix(k, s.prefix+":")
		}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	return keys, nil
}

func (s *RedisKV) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisKV) Close() error {
	return s.rdb.Close()
}
