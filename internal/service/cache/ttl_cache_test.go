package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache()

	c.Set("a", 1, time.Minute)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache()

	c.Set("short", "v", 10*time.Millisecond)
	c.Set("forever", "v", 0)

	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
	_, ok = c.Get("forever")
	assert.True(t, ok, "zero ttl never expires")
	assert.Equal(t, 1, c.Len())
}

func TestTTLCacheGetWithAge(t *testing.T) {
	c := NewTTLCache()
	before := time.Now()
	c.Set("a", "v", time.Minute)

	_, at, ok := c.GetWithAge("a")
	require.True(t, ok)
	assert.False(t, at.Before(before))
}

func TestTTLCacheDeleteContaining(t *testing.T) {
	c := NewTTLCache()
	c.Set("market_context_standard_false", "v", time.Minute)
	c.Set("market_context_premium_false", "v", time.Minute)
	c.Set("search_abc123", "v", time.Minute)

	assert.Equal(t, 2, c.DeleteContaining("market_context"))
	assert.Equal(t, []string{"search_abc123"}, c.Keys())

	assert.Equal(t, 1, c.DeleteContaining(""), "empty pattern clears the rest")
	assert.Empty(t, c.Keys())
}

func TestTTLCacheKeysSortedAndLive(t *testing.T) {
	c := NewTTLCache()
	c.Set("b", 1, time.Minute)
	c.Set("a", 1, time.Minute)
	c.Set("dead", 1, time.Nanosecond)

	time.Sleep(time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, c.Keys())
}

func TestTTLCacheBytes(t *testing.T) {
	c := NewTTLCache()
	require.NoError(t, c.SetBytes("k", []byte("payload"), time.Minute))

	b, ok, err := c.GetBytes("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), b)

	_, ok, err = c.GetBytes("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
