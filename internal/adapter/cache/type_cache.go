package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"talibgen/internal/domain"
	"talibgen/internal/port"
)

// TypeCache is a bounded LRU of resolved types keyed by role and raw type.
type TypeCache struct {
	entries *lru.Cache[cacheKey, resolved]

	mu     sync.Mutex
	hits   int
	misses int
}

type cacheKey struct {
	role domain.Role
	raw  string
}

type resolved struct {
	hostType string
	elemType string
	isBuffer bool
}

func NewTypeCache(maxSize int) *TypeCache {
	if maxSize <= 0 {
		maxSize = 64
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[cacheKey, resolved](maxSize)
	return &TypeCache{entries: entries}
}

func (c *TypeCache) get(key cacheKey) (resolved, bool) {
	entry, ok := c.entries.Get(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return entry, ok
}

func (c *TypeCache) put(key cacheKey, entry resolved) {
	c.entries.Add(key, entry)
}

func (c *TypeCache) Size() int {
	return c.entries.Len()
}

// Stats returns hit and miss counts since creation.
func (c *TypeCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// CachedResolver memoises successful resolutions. Failures are not cached,
// so an unknown type fails every time it is seen.
type CachedResolver struct {
	resolver port.TypeResolver
	cache    *TypeCache
}

func NewCachedResolver(resolver port.TypeResolver, cache *TypeCache) *CachedResolver {
	return &CachedResolver{
		resolver: resolver,
		cache:    cache,
	}
}

func (r *CachedResolver) Resolve(function string, p domain.ClassifiedParameter) (domain.ResolvedParameter, error) {
	key := cacheKey{role: p.Role, raw: p.Parameter.RawType}

	if entry, hit := r.cache.get(key); hit {
		return domain.ResolvedParameter{
			Name:     p.Name,
			Role:     p.Role,
			HostType: entry.hostType,
			ElemType: entry.elemType,
			IsBuffer: entry.isBuffer,
			RawType:  p.Parameter.RawType,
		}, nil
	}

	res, err := r.resolver.Resolve(function, p)
	if err != nil {
		return domain.ResolvedParameter{}, err
	}

	r.cache.put(key, resolved{hostType: res.HostType, elemType: res.ElemType, isBuffer: res.IsBuffer})
	return res, nil
}
