package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(t *testing.T) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return New(NewMemoryBackend(), DefaultTTL, WithClock(clock.Now)), clock
}

func TestGetRespectsTTLBoundary(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)
	value := json.RawMessage(`{"name":"Paris"}`)

	require.NoError(t, c.Put(ctx, "weather_paris", value))

	clock.Advance(DefaultTTL - time.Millisecond)
	got, ok := c.Get(ctx, "weather_paris")
	require.True(t, ok)
	assert.JSONEq(t, string(value), string(got))

	clock.Advance(2 * time.Millisecond)
	_, ok = c.Get(ctx, "weather_paris")
	assert.False(t, ok)
}

func TestGetAtExactTTLIsStale(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache(t)

	require.NoError(t, c.Put(ctx, "k", json.RawMessage(`1`)))
	clock.Advance(DefaultTTL)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestStaleEntriesAreKeptUntilOverwritten(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := New(backend, time.Minute, WithClock(clock.Now))

	require.NoError(t, c.Put(ctx, "k", json.RawMessage(`"old"`)))
	clock.Advance(2 * time.Minute)

	_, ok := c.Get(ctx, "k")
	require.False(t, ok)
	assert.Equal(t, 1, backend.Len())

	require.NoError(t, c.Put(ctx, "k", json.RawMessage(`"new"`)))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, `"new"`, string(got))
	assert.Equal(t, 1, backend.Len())
}

func TestMissingKeyIsAbsent(t *testing.T) {
	c, _ := newTestCache(t)
	_, ok := c.Get(context.Background(), "nothing")
	assert.False(t, ok)
}

type brokenBackend struct{ MemoryBackend }

func (*brokenBackend) Load(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errors.New("disk on fire")
}

func TestBackendErrorIsTreatedAsMiss(t *testing.T) {
	c := New(&brokenBackend{}, time.Minute)
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestNonPositiveTTLFallsBackToDefault(t *testing.T) {
	c := New(NewMemoryBackend(), 0)
	assert.Equal(t, DefaultTTL, c.TTL())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "weather_new york", WeatherByNameKey("  New York "))
	assert.Equal(t, "weather_48.85_2.35", WeatherByCoordsKey(48.85, 2.35))
	assert.Equal(t, "forecast_-33.9_151.2", ForecastKey(-33.9, 151.2))
}
