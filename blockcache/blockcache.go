// Package blockcache provides an in-process, size-bounded hfile.BlockCache
// backed by an LRU eviction policy.
package blockcache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sztony/hfile"
)

// Cache is a concurrency-safe hfile.BlockCache holding up to a fixed
// number of decoded data blocks, evicting least-recently-used entries once
// full.
type Cache struct {
	lru *lru.Cache[hfile.CacheKey, []byte]
}

// New returns a Cache holding at most size decoded blocks. size must be
// positive.
func New(size int) (*Cache, error) {
	l, err := lru.New[hfile.CacheKey, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// Get implements hfile.BlockCache.
func (c *Cache) Get(key hfile.CacheKey) ([]byte, bool) {
	return c.lru.Get(key)
}

// Put implements hfile.BlockCache.
func (c *Cache) Put(key hfile.CacheKey, data []byte) {
	c.lru.Add(key, data)
}

// Len returns the number of blocks currently cached.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge evicts every cached block.
func (c *Cache) Purge() {
	c.lru.Purge()
}
