package corestate

import (
	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethexec/execlayer/coretypes"
)

// codeCache front-ends the backing store's code table with
// github.com/VictoriaMetrics/fastcache. Code is content-addressed and
// write-once (spec.md §3), so caching it is always sound: a hit can never
// be stale.
type codeCache struct {
	cache *fastcache.Cache
}

func newCodeCache(maxBytes int) *codeCache {
	return &codeCache{cache: fastcache.New(maxBytes)}
}

func (c *codeCache) get(hash coretypes.Hash) ([]byte, bool) {
	v, ok := c.cache.HasGet(nil, hash[:])
	if !ok {
		return nil, false
	}
	return v, true
}

func (c *codeCache) set(hash coretypes.Hash, code []byte) {
	c.cache.Set(hash[:], code)
}
