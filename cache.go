package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	cacheKeyHome     = "home"
	cacheKeyAbout    = "about"
	cacheKeyContacts = "contacts"
	cacheKeySkills   = "skills"
	cacheKeyProjects = "projects"
)

// ContentCache holds public reads between writes. Writers must call
// Invalidate for the sections they touched.
type ContentCache struct {
	c *cache.Cache

	mu   sync.Mutex
	gens map[string]uint64
}

func NewContentCache(ttl time.Duration) *ContentCache {
	return &ContentCache{c: cache.New(ttl, 2*ttl), gens: make(map[string]uint64)}
}

// Invalidate drops the cached keys. A read that started before the call will
// not store its result.
func (cc *ContentCache) Invalidate(keys ...string) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	for _, k := range keys {
		cc.gens[k]++
		cc.c.Delete(k)
	}
}

func (cc *ContentCache) generation(key string) uint64 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.gens[key]
}

// setIfCurrent stores data only when key has not been invalidated since gen.
func (cc *ContentCache) setIfCurrent(key string, gen uint64, data interface{}) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.gens[key] != gen {
		return
	}
	cc.c.Set(key, data, cache.DefaultExpiration)
}

func getCachedData[T any](cc *ContentCache, key string, fetchFunc func() (T, error)) (T, error) {
	if data, found := cc.c.Get(key); found {
		if v, ok := data.(T); ok {
			return v, nil
		}
		var zero T
		return zero, fmt.Errorf("cache entry %q has unexpected type %T", key, data)
	}

	gen := cc.generation(key)
	data, err := fetchFunc()
	if err != nil {
		return data, err
	}

	cc.setIfCurrent(key, gen, data)
	return data, nil
}
