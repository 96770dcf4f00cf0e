package cache

import (
	"context"
	"fmt"
)

// Backend kinds accepted by OpenBackend.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
)

// BackendOptions carries the settings each backend kind needs.
type BackendOptions struct {
	Dir        string // file backend directory
	SQLitePath string
	RedisAddr  string
}

// OpenBackend constructs the backend named by kind.
func OpenBackend(ctx context.Context, kind string, opts BackendOptions) (Backend, error) {
	switch kind {
	case KindMemory:
		return NewMemoryBackend(), nil
	case KindFile, "":
		return NewFileBackend(opts.Dir)
	case KindSQLite:
		return NewSQLiteBackend(ctx, opts.SQLitePath)
	case KindRedis:
		return NewRedisBackend(ctx, opts.RedisAddr, "weather-dashboard:")
	default:
		return nil, fmt.Errorf("unknown cache backend %q", kind)
	}
}
