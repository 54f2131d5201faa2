package store

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/adajed/searchview/internal/graph"
)

// FrameCache is a FIFO-evicting cache of frames and child lists keyed by
// frame id. Frames are immutable once stored, so entries never go stale.
type FrameCache struct {
	mu         sync.RWMutex
	frames     map[int64]*graph.Frame
	children   map[int64][]int64
	order      []int64
	maxEntries int
	hits       uint64
	misses     uint64
}

// NewFrameCache creates a cache holding at most maxEntries frame ids.
func NewFrameCache(maxEntries int) *FrameCache {
	if maxEntries < 16 {
		maxEntries = 16
	}
	return &FrameCache{
		frames:     make(map[int64]*graph.Frame),
		children:   make(map[int64][]int64),
		order:      make([]int64, 0, maxEntries),
		maxEntries: maxEntries,
	}
}

func (c *FrameCache) getFrame(id int64) (*graph.Frame, bool) {
	c.mu.RLock()
	f, ok := c.frames[id]
	c.mu.RUnlock()
	c.count(ok)
	return f, ok
}

func (c *FrameCache) getChildren(id int64) ([]int64, bool) {
	c.mu.RLock()
	ids, ok := c.children[id]
	c.mu.RUnlock()
	c.count(ok)
	return ids, ok
}

func (c *FrameCache) count(hit bool) {
	if hit {
		atomic.AddUint64(&c.hits, 1)
	} else {
		atomic.AddUint64(&c.misses, 1)
	}
}

func (c *FrameCache) putFrame(f *graph.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.track(f.ID)
	c.frames[f.ID] = f
}

func (c *FrameCache) putChildren(id int64, ids []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.track(id)
	c.children[id] = ids
}

// track records id in eviction order, evicting the oldest ids when full.
// Callers hold c.mu.
func (c *FrameCache) track(id int64) {
	_, hasFrame := c.frames[id]
	_, hasChildren := c.children[id]
	if hasFrame || hasChildren {
		return
	}
	for len(c.order) >= c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.frames, oldest)
		delete(c.children, oldest)
	}
	c.order = append(c.order, id)
}

// Stats returns cache statistics.
func (c *FrameCache) Stats() (hits, misses uint64, size, capacity int) {
	hits = atomic.LoadUint64(&c.hits)
	misses = atomic.LoadUint64(&c.misses)
	c.mu.RLock()
	size = len(c.order)
	c.mu.RUnlock()
	return hits, misses, size, c.maxEntries
}

// CachedReader serves reads from a FrameCache before the underlying store.
type CachedReader struct {
	next  ReadStore
	cache *FrameCache
}

// NewCachedReader wraps next with cache.
func NewCachedReader(next ReadStore, cache *FrameCache) *CachedReader {
	return &CachedReader{next: next, cache: cache}
}

func (r *CachedReader) GetFrame(ctx context.Context, id int64) (*graph.Frame, error) {
	if f, ok := r.cache.getFrame(id); ok {
		return f, nil
	}
	f, err := r.next.GetFrame(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.putFrame(f)
	return f, nil
}

func (r *CachedReader) GetChildren(ctx context.Context, parentID int64) ([]int64, error) {
	if ids, ok := r.cache.getChildren(parentID); ok {
		return ids, nil
	}
	ids, err := r.next.GetChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	r.cache.putChildren(parentID, ids)
	return ids, nil
}

func (r *CachedReader) GetRootID(ctx context.Context) (int64, error) {
	return r.next.GetRootID(ctx)
}

// Cache returns the underlying cache.
func (r *CachedReader) Cache() *FrameCache {
	return r.cache
}
