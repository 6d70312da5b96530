package services

import (
	"errors"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/platinummonkey/casserver/pkg/observability"
)

const (
	// DefaultCacheSize is the default number of cached lookups
	DefaultCacheSize = 1024

	// DefaultCacheTTL is the default lifetime of a cached lookup
	DefaultCacheTTL = 5 * time.Minute
)

// ErrReadOnlyRegistry is returned by CachingRegistry.Save when the wrapped
// registry cannot store definitions
var ErrReadOnlyRegistry = errors.New("registry does not accept new services")

// Saver is implemented by registries that store service definitions
type Saver interface {
	Save(def *RegisteredService)
}

// cacheEntry wraps a lookup result so that misses can be cached too
type cacheEntry struct {
	service *RegisteredService
}

// CachingRegistry caches FindService results per service id.
// HasServices is always answered by the wrapped registry.
type CachingRegistry struct {
	registry Registry
	cache    *lru.LRU[string, cacheEntry]
	metrics  *observability.Metrics

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachingRegistry wraps a registry with an expiring LRU cache.
// Misses are cached too: a definition stored directly in the wrapped registry
// is not found through the cache until the entry expires or Purge is called.
// Use Save to store definitions and invalidate in one step.
func NewCachingRegistry(registry Registry, size int, ttl time.Duration, metrics *observability.Metrics) *CachingRegistry {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &CachingRegistry{
		registry: registry,
		cache:    lru.NewLRU[string, cacheEntry](size, nil, ttl),
		metrics:  metrics,
	}
}

// HasServices delegates to the wrapped registry
func (c *CachingRegistry) HasServices() bool {
	return c.registry.HasServices()
}

// FindService returns the cached lookup for the service id, consulting the
// wrapped registry on a miss
func (c *CachingRegistry) FindService(service Service) *RegisteredService {
	if entry, ok := c.cache.Get(service.ID); ok {
		c.hits.Add(1)
		c.metrics.RecordRegistryCacheLookup(true)
		return entry.service
	}

	c.misses.Add(1)
	c.metrics.RecordRegistryCacheLookup(false)

	found := c.registry.FindService(service)
	c.cache.Add(service.ID, cacheEntry{service: found})
	return found
}

// Save stores def in the wrapped registry and drops every cached lookup
func (c *CachingRegistry) Save(def *RegisteredService) error {
	saver, ok := c.registry.(Saver)
	if !ok {
		return ErrReadOnlyRegistry
	}

	saver.Save(def)
	c.cache.Purge()
	return nil
}

// Purge drops every cached lookup
func (c *CachingRegistry) Purge() {
	c.cache.Purge()
}

// CacheStats reports cache counters
type CacheStats struct {
	Hits      int64
	Misses    int64
	ItemCount int
}

// Stats returns cache statistics
func (c *CachingRegistry) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		ItemCount: c.cache.Len(),
	}
}
