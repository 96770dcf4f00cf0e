package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores entries as JSON strings in Redis. Keys are written
// without a server-side expiry: staleness is decided by Cache, not by Redis.
type RedisBackend struct {
	cli    *redis.Client
	prefix string
}

// NewRedisBackend connects to addr and verifies the connection.
func NewRedisBackend(ctx context.Context, addr, prefix string) (*RedisBackend, error) {
	cli := redis.NewClient(&redis.Options{Addr: addr})
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisBackend{cli: cli, prefix: prefix}, nil
}

// Load reads the entry stored under key.
func (r *RedisBackend) Load(ctx context.Context, key string) (Entry, bool, error) {
	data, err := r.cli.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("redis get %q: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache entry %q: %w", key, err)
	}
	return entry, true, nil
}

// Store overwrites the entry under key.
func (r *RedisBackend) Store(ctx context.Context, key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := r.cli.Set(ctx, r.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Close closes the client.
func (r *RedisBackend) Close() error {
	return r.cli.Close()
}
