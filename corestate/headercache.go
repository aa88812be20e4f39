package corestate

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/ethexec/execlayer/coretypes"
)

// headerCacheSize bounds the number of headers kept hot; reorgs are out
// of scope (spec.md §1), so entries are only ever invalidated by process
// restart or explicit overwrite, never by chain reorganisation logic.
const headerCacheSize = 4096

// headerCache front-ends block-header-by-number lookups with
// github.com/hashicorp/golang-lru, the teacher's own header/trie cache
// library.
type headerCache struct {
	cache *lru.Cache
}

func newHeaderCache() *headerCache {
	c, _ := lru.New(headerCacheSize)
	return &headerCache{cache: c}
}

func (h *headerCache) get(number uint64) (coretypes.BlockHeader, bool) {
	v, ok := h.cache.Get(number)
	if !ok {
		return coretypes.BlockHeader{}, false
	}
	return v.(coretypes.BlockHeader), true
}

func (h *headerCache) set(number uint64, header coretypes.BlockHeader) {
	h.cache.Add(number, header)
}
