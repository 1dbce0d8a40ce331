package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/starford/folio/internal/apperr"
)

const scanBatch = 256

// Redis implements Backend on a Redis server. Every logical key is stored as a
// string value under an optional namespace prefix.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis creates a Redis backend from a redis:// URL. It does not contact the
// server; unavailability surfaces per call.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("storage: invalid redis url: %w", err)
	}
	return NewRedisFromClient(redis.NewClient(opts), cfg.KeyPrefix), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client, keyPrefix string) *Redis {
	return &Redis{rdb: rdb, prefix: cleanKey(keyPrefix)}
}

// Name implements Backend.
func (r *Redis) Name() string { return "redis" }

// Ping verifies connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

func (r *Redis) key(k string) string {
	k = cleanKey(k)
	if r.prefix == "" {
		return k
	}
	return r.prefix + "/" + k
}

// Get implements Backend.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("storage: redis get %s: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: redis get %s: %v: %w", key, err, apperr.ErrStorage)
	}
	return val, nil
}

// Set implements Backend. Values never expire.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("storage: redis set %s: %v: %w", key, err, apperr.ErrStorage)
	}
	return nil
}

// Delete implements Backend.
func (r *Redis) Delete(ctx context.Context, key string) error {
	n, err := r.rdb.Del(ctx, r.key(key)).Result()
	if err != nil {
		return fmt.Errorf("storage: redis del %s: %v: %w", key, err, apperr.ErrStorage)
	}
	if n == 0 {
		return fmt.Errorf("storage: redis del %s: %w", key, apperr.ErrNotFound)
	}
	return nil
}

// Exists implements Backend.
func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("storage: redis exists %s: %v: %w", key, err, apperr.ErrStorage)
	}
	return n > 0, nil
}

// List scans every key below prefix and projects it onto its immediate child.
func (r *Redis) List(ctx context.Context, prefix string) ([]string, error) {
	base := r.key(prefix)
	pattern := escapeGlob(base) + "/*"
	if base == "" {
		pattern = "*"
	}
	var keys []string
	iter := r.rdb.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("storage: redis scan %s: %v: %w", prefix, err, apperr.ErrStorage)
	}
	return childNames(base, keys), nil
}

// escapeGlob quotes the characters SCAN MATCH treats specially.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
