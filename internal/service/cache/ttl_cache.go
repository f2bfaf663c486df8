package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

type entry struct {
	v   any
	at  time.Time
	exp time.Time
}

type TTLCache struct {
	mu sync.RWMutex
	m  map[string]entry
}

func NewTTLCache() *TTLCache {
	return &TTLCache{m: make(map[string]entry)}
}

func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.v, true
}

// GetWithAge returns the value and its storage timestamp.
func (c *TTLCache) GetWithAge(key string) (any, time.Time, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, time.Time{}, false
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, time.Time{}, false
	}
	return e.v, e.at, true
}

func (c *TTLCache) Set(key string, v any, ttl time.Duration) {
	now := time.Now()
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = entry{v: v, at: now, exp: exp}
	c.mu.Unlock()
}

func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

// DeleteContaining removes every live key containing the substring and
// returns the number removed. An empty substring clears the cache.
func (c *TTLCache) DeleteContaining(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.m {
		if substr == "" || strings.Contains(k, substr) {
			delete(c.m, k)
			n++
		}
	}
	return n
}

// Keys returns live (non-expired) keys, sorted for stable introspection.
func (c *TTLCache) Keys() []string {
	now := time.Now()
	c.mu.RLock()
	keys := make([]string, 0, len(c.m))
	for k, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			continue
		}
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Len counts live entries.
func (c *TTLCache) Len() int {
	now := time.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			continue
		}
		n++
	}
	return n
}

// Implement BytesCache
func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	if v, ok := c.Get(key); ok {
		if b, ok2 := v.([]byte); ok2 {
			return b, true, nil
		}
		return nil, false, nil
	}
	return nil, false, nil
}

func (c *TTLCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	c.Set(key, value, ttl)
	return nil
}
