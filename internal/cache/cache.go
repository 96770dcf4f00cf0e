// Package cache provides the time-boxed response cache that sits in front of
// every cacheable upstream read.
//
// Entries are stored with the instant they were written. A read only returns
// the value while it is younger than the cache TTL; older entries are ignored
// rather than evicted and get overwritten by the next successful fetch.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTTL is the freshness window for cached upstream payloads.
const DefaultTTL = 10 * time.Minute

// Entry is a cached upstream payload and the instant it was written.
type Entry struct {
	Value    json.RawMessage `json:"value"`
	StoredAt time.Time       `json:"stored_at"`
}

// Backend is the durable storage underneath a Cache. Load reports found=false
// for unknown keys; Store overwrites unconditionally.
type Backend interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Store(ctx context.Context, key string, entry Entry) error
	Close() error
}

// Cache applies the TTL policy on top of a Backend.
type Cache struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used for freshness checks and writes.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger attaches a logger for backend failures and hit/miss tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// New creates a Cache. A non-positive ttl falls back to DefaultTTL.
func New(backend Backend, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		backend: backend,
		ttl:     ttl,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TTL returns the configured freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the value stored under key if it is still fresh. Backend
// failures are logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	entry, found, err := c.backend.Load(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return nil, false
	}
	if !found {
		c.log.Debug().Str("key", key).Msg("cache miss")
		return nil, false
	}
	if age := c.now().Sub(entry.StoredAt); age >= c.ttl {
		c.log.Debug().Str("key", key).Dur("age", age).Msg("cache stale")
		return nil, false
	}
	c.log.Debug().Str("key", key).Msg("cache hit")
	return entry.Value, true
}

// Put overwrites the entry under key with value stamped at the current time.
func (c *Cache) Put(ctx context.Context, key string, value json.RawMessage) error {
	return c.backend.Store(ctx, key, Entry{Value: value, StoredAt: c.now()})
}

// Close releases the backend.
func (c *Cache) Close() error {
	return c.backend.Close()
}
