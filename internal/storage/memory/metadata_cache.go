package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"approval-watch/internal/domain"
	"approval-watch/internal/storage"
)

// MetadataCache is an in-memory implementation of storage.MetadataCache.
// Metadata is immutable on-chain, so entries never expire; growth is bounded
// by the number of distinct tokens that reach the metadata fetch stage.
type MetadataCache struct {
	mu      sync.RWMutex
	entries map[common.Address]*domain.TokenMetadata
}

// NewMetadataCache creates an empty metadata cache.
func NewMetadataCache() *MetadataCache {
	return &MetadataCache{
		entries: make(map[common.Address]*domain.TokenMetadata),
	}
}

// Get returns cached metadata. Returns ErrNotFound if absent.
func (c *MetadataCache) Get(_ context.Context, token common.Address) (*domain.TokenMetadata, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	meta, ok := c.entries[token]
	if !ok {
		return nil, storage.ErrNotFound
	}

	metaCopy := *meta
	return &metaCopy, nil
}

// Put stores metadata for a token, overwriting any previous entry.
func (c *MetadataCache) Put(_ context.Context, meta *domain.TokenMetadata) error {
	if meta == nil {
		return storage.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	metaCopy := *meta
	c.entries[meta.Token] = &metaCopy
	return nil
}

var _ storage.MetadataCache = (*MetadataCache)(nil)
