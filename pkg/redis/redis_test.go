package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pennyscan/pkg/config"
)

func newMiniredisClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := New(&config.Config{
		Redis: config.RedisConfig{
			Host:    mr.Host(),
			Port:    mr.Port(),
			Enabled: true,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestNewClient_Unreachable(t *testing.T) {
	_, err := New(&config.Config{Redis: config.RedisConfig{Host: "127.0.0.1", Port: "1", Enabled: true}})
	assert.Error(t, err)
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	cache := NewCache(client, "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations are no-ops
	require.NoError(t, cache.Set(ctx, "key", "value", time.Minute))

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_RoundTripAndTTL(t *testing.T) {
	client, mr := newMiniredisClient(t)
	cache := NewCache(client, "pennyscan")
	ctx := context.Background()

	type profile struct {
		MarketCap float64 `json:"market_cap"`
	}

	require.NoError(t, cache.Set(ctx, ProfileKey("ABCD"), profile{MarketCap: 120.5}, time.Hour))
	assert.True(t, mr.Exists("pennyscan:cache:profile:ABCD"))

	var got profile
	found, err := cache.Get(ctx, ProfileKey("ABCD"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 120.5, got.MarketCap)

	mr.FastForward(2 * time.Hour)

	found, err = cache.Get(ctx, ProfileKey("ABCD"), &got)
	require.NoError(t, err)
	assert.False(t, found, "entry should expire after TTL")
}

func TestCache_Delete(t *testing.T) {
	client, _ := newMiniredisClient(t)
	cache := NewCache(client, "pennyscan")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", 1, time.Minute))
	require.NoError(t, cache.Delete(ctx, "k"))

	var v int
	found, err := cache.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProfileKey(t *testing.T) {
	assert.Equal(t, "profile:ABCD", ProfileKey("ABCD"))
}
