package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	k := Key("gemini:gemini-2.0-flash", "prompt")
	assert.Len(t, k, 40)
	assert.Equal(t, k, Key("gemini:gemini-2.0-flash", "prompt"))
	assert.NotEqual(t, k, Key("openai:gpt-4o-mini", "prompt"))
	// the separator keeps ("ab","c") and ("a","bc") apart
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Nop
	require.NoError(t, c.Set(ctx, "k", "v"))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestRedis needs a live server; set CARSALES_TEST_REDIS_ADDR to run it.
func TestRedis(t *testing.T) {
	addr := os.Getenv("CARSALES_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CARSALES_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedis(ctx, RedisConfig{Addr: addr, Prefix: "carsales:test:" + t.Name() + ":", TTL: time.Minute})
	require.NoError(t, err)
	defer c.Close()

	key := Key("extractive", time.Now().String())
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, "jawaban"))
	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "jawaban", got)
}

func TestRedisInMemory(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c, err := NewRedis(ctx, RedisConfig{Addr: mr.Addr(), TTL: 10 * time.Minute})
	require.NoError(t, err)
	defer c.Close()

	key := Key("extractive", "Apa keunggulan D-Max?")
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "a missing key is a miss, not an error")

	require.NoError(t, c.Set(ctx, key, "jawaban"))
	assert.True(t, mr.Exists(DefaultPrefix+key))
	assert.Equal(t, 10*time.Minute, mr.TTL(DefaultPrefix+key))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "jawaban", got)

	mr.FastForward(11 * time.Minute)
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCustomPrefixNoTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c, err := NewRedis(ctx, RedisConfig{Addr: mr.Addr(), Prefix: "isuzu:"})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", "v"))
	val, err := mr.Get("isuzu:k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
	assert.Zero(t, mr.TTL("isuzu:k"))
}

func TestRedisServerError(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c, err := NewRedis(ctx, RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer c.Close()

	mr.SetError("ERR simulated failure")
	_, _, err = c.Get(ctx, "k")
	assert.Error(t, err)
}

func TestNewRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedis(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
