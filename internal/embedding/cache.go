package embedding

import (
	"container/list"
	"context"
	"fmt"
	"sync"
)

// Cache is an LRU cache for document embeddings keyed by document ID.
type Cache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.RWMutex
}

type cacheEntry struct {
	key   string
	value [][]float32
}

// NewCache creates a new cache with the given capacity.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached embedding for key if present.
// Takes the full lock: a hit promotes the entry, which mutates the
// shared list.
func (c *Cache) Get(key string) ([][]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value, true
	}
	return nil, false
}

// Set stores the embedding for key, evicting the oldest entry if at capacity.
func (c *Cache) Set(key string, value [][]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	entry := &cacheEntry{key: key, value: value}
	elem := c.lru.PushFront(entry)
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// Store persists embeddings across processes, behind the in-memory tier.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, id string) ([][]float32, bool, error)
	Put(ctx context.Context, id string, embedding [][]float32) error
}

// DocumentCache memoizes per-document embeddings so repeated questions
// against the same document never re-embed it. The caller owns document
// identity: the same ID must always refer to the same content, and content
// changes require a fresh ID. A lookup race on one ID may compute the
// embedding more than once; both results are identical and either wins.
type DocumentCache struct {
	model Model
	mem   *Cache
	store Store
}

// NewDocumentCache creates a cache over model with the given LRU capacity.
// store may be nil to disable the persistent tier.
func NewDocumentCache(model Model, capacity int, store Store) *DocumentCache {
	return &DocumentCache{model: model, mem: NewCache(capacity), store: store}
}

// GetOrCompute returns the embedding for the document with the given ID,
// computing and caching it on first request. Writes to the persistent
// tier are best effort; a store failure never fails the lookup.
func (c *DocumentCache) GetOrCompute(ctx context.Context, id, text string) ([][]float32, error) {
	if emb, ok := c.mem.Get(id); ok {
		return emb, nil
	}
	if c.store != nil {
		emb, ok, err := c.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("embedding store get: %w", err)
		}
		if ok {
			c.mem.Set(id, emb)
			return emb, nil
		}
	}

	emb, err := c.model.GetDocumentEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	c.mem.Set(id, emb)
	if c.store != nil {
		// The persistent tier is best effort: the embedding is already
		// computed and cached in memory, so a failed write must not turn
		// a successful computation into an error.
		_ = c.store.Put(ctx, id, emb)
	}
	return emb, nil
}
