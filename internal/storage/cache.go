package storage

import (
	"context"
	"sync"

	"github.com/dpshade/pocket-compose/internal/models"
)

// cachedPool is a loaded pool plus the file mod time it was read at
type cachedPool struct {
	pool    *models.Pool
	modTime int64
}

// PoolCache keeps loaded pools in memory, keyed by pool id. An entry is
// reused until the pool file changes on disk.
type PoolCache struct {
	store *Storage
	pools map[models.PoolID]cachedPool
	mu    sync.RWMutex // Protects pools from concurrent loads

	hits, misses int
}

// NewPoolCache creates a cache in front of store
func NewPoolCache(store *Storage) *PoolCache {
	return &PoolCache{
		store: store,
		pools: make(map[models.PoolID]cachedPool),
	}
}

// LoadPool returns the cached pool when its file is unchanged, otherwise
// loads it from storage. Errors are not cached.
func (c *PoolCache) LoadPool(ctx context.Context, id models.PoolID) (*models.Pool, error) {
	modTime, exists := c.store.poolModTime(id)

	c.mu.RLock()
	cached, ok := c.pools[id]
	c.mu.RUnlock()
	if ok && exists && cached.modTime == modTime {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return cached.pool, nil
	}

	pool, err := c.store.LoadPool(ctx, id)
	if err != nil {
		c.Invalidate(id)
		return nil, err
	}

	c.mu.Lock()
	c.misses++
	c.pools[id] = cachedPool{pool: pool, modTime: modTime}
	c.mu.Unlock()
	return pool, nil
}

// Invalidate drops a single entry
func (c *PoolCache) Invalidate(id models.PoolID) {
	c.mu.Lock()
	delete(c.pools, id)
	c.mu.Unlock()
}

// Stats returns cache hits and misses
func (c *PoolCache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
