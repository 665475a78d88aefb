package storage

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kitedb/kitedb/internal/kiteerr"
	"github.com/kitedb/kitedb/internal/kitelog"
)

// pager is the minimal surface BufferPool needs from Storage; kept as
// an interface so tests can substitute a fake.
type pager interface {
	ReadPage(id uint32) ([]byte, error)
	WritePage(id uint32, data []byte) error
	AllocatePage() (uint32, error)
	PageSize() uint32
}

// BufferPool is a write-through LRU cache over a pager. Eviction
// bookkeeping is delegated to hashicorp/golang-lru rather than
// hand-rolled, so the pool only has to manage the write-through
// policy itself.
type BufferPool struct {
	cache *lru.Cache[uint32, []byte]
	pager pager
	log   *kitelog.Logger
}

// NewBufferPool creates a buffer pool of the given capacity (>= 1)
// over pager.
func NewBufferPool(p pager, capacity int, log *kitelog.Logger) (*BufferPool, error) {
	if log == nil {
		log = kitelog.Default
	}
	if capacity < 1 {
		return nil, kiteerr.New(kiteerr.InvalidArgument, "storage.NewBufferPool", "capacity must be >= 1")
	}

	bp := &BufferPool{pager: p, log: log}

	cache, err := lru.NewWithEvict[uint32, []byte](capacity, func(id uint32, _ []byte) {
		bp.log.Debugf("evicted page %d from buffer pool", id)
	})
	if err != nil {
		return nil, kiteerr.Wrap(kiteerr.InvalidArgument, "storage.NewBufferPool", err)
	}
	bp.cache = cache
	return bp, nil
}

// GetPage returns page id, serving from cache when present and
// promoting it to most-recently-used either way.
func (bp *BufferPool) GetPage(id uint32) ([]byte, error) {
	if data, ok := bp.cache.Get(id); ok {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}

	data, err := bp.pager.ReadPage(id)
	if err != nil {
		return nil, err
	}

	cached := make([]byte, len(data))
	copy(cached, data)
	bp.cache.Add(id, cached)

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// WritePage writes data through to the underlying pager immediately,
// then inserts or refreshes the cache entry. There is no dirty
// tracking or write-back: every write is durable before this call
// returns.
func (bp *BufferPool) WritePage(id uint32, data []byte) error {
	if uint32(len(data)) != bp.pager.PageSize() {
		return kiteerr.New(kiteerr.InvalidArgument, "storage.BufferPool.WritePage",
			fmt.Sprintf("invalid page size %d, expected %d", len(data), bp.pager.PageSize()))
	}
	if err := bp.pager.WritePage(id, data); err != nil {
		return err
	}

	cached := make([]byte, len(data))
	copy(cached, data)
	bp.cache.Add(id, cached)
	return nil
}

// AllocatePage delegates to the underlying pager.
func (bp *BufferPool) AllocatePage() (uint32, error) {
	return bp.pager.AllocatePage()
}

// Close drops all cache entries; Storage holds the durable copy.
func (bp *BufferPool) Close() error {
	bp.cache.Purge()
	return nil
}

// CachedPageIDs returns the set of page ids currently cached.
func (bp *BufferPool) CachedPageIDs() []uint32 {
	return bp.cache.Keys()
}

// Len returns the number of cached pages.
func (bp *BufferPool) Len() int {
	return bp.cache.Len()
}
