package memcache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"city_tourism/internal/adapters/observability"
)

// Cache is an in-process TTL cache. Values are stored as JSON so a caller
// never holds a reference into cached state. Expired entries are dropped
// lazily on access and by a periodic janitor.
type Cache struct{ c *gocache.Cache }

func New(cleanup time.Duration) *Cache {
	return &Cache{c: gocache.New(gocache.NoExpiration, cleanup)}
}

func (m *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		observability.ObserveCache("memory", "error")
		m.c.Delete(key)
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		observability.ObserveCache("memory", "error")
		return false, err
	}
	observability.ObserveCache("memory", "hit")
	return true, nil
}

func (m *Cache) Set(_ context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		observability.ObserveCache("memory", "error")
		return err
	}
	ttl := gocache.NoExpiration
	if ttlSec > 0 {
		ttl = time.Duration(ttlSec) * time.Second
	}
	m.c.Set(key, b, ttl)
	observability.ObserveCache("memory", "set")
	return nil
}

func (m *Cache) Del(_ context.Context, key string) error {
	observability.ObserveCache("memory", "del")
	m.c.Delete(key)
	return nil
}
