//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/cache"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR is not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return rdb
}

func TestRedisClient_RoundTrip(t *testing.T) {
	rdb := newRedis(t)
	ctx := context.Background()
	key := "geocode:test-" + time.Now().Format("150405.000000")
	t.Cleanup(func() { rdb.Del(ctx, key) })

	c := cache.NewRedisClient[models.GeocodedLocation](rdb, zerolog.Nop(), time.Minute)

	_, err := c.Get(ctx, key)
	require.ErrorIs(t, err, cache.ErrMiss)

	want := models.GeocodedLocation{Name: "Odesa", Country: "Ukraine", Latitude: 46.48, Longitude: 30.73}
	require.NoError(t, c.Set(ctx, key, want))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	ttl, err := rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)
}
