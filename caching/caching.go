// Package caching keeps short-lived in-process values such as the
// dashboard statistics.
package caching

import (
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	memoryCache *cache.Cache
	ttl         time.Duration
}

// NewCache returns a cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		memoryCache: cache.New(ttl, 2*ttl),
		ttl:         ttl,
	}
}

func (s *Cache) Set(key string, value any) {
	s.memoryCache.Set(key, value, s.ttl)
}

func (s *Cache) Delete(key string) {
	s.memoryCache.Delete(key)
}

func (s *Cache) Flush() {
	s.memoryCache.Flush()
}

// Get returns the cached value for key when present and of type T.
func Get[T any](s *Cache, key string) (T, bool) {
	var zero T
	v, ok := s.memoryCache.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// GetOrLoad returns the cached value for key, calling load and caching its
// result on a miss. Errors are not cached.
func GetOrLoad[T any](s *Cache, key string, load func() (T, error)) (T, error) {
	if v, ok := Get[T](s, key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	s.Set(key, v)
	return v, nil
}
