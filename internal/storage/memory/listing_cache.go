package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"approval-watch/internal/domain"
	"approval-watch/internal/storage"
)

// Defaults for the listing cache.
const (
	DefaultListingTTL        = 10 * time.Minute
	DefaultListingMaxEntries = 10000
)

// ListingCache is an in-memory implementation of storage.ListingCache.
// Entries expire after a fixed TTL; expired entries are dropped lazily on
// read and swept when the cache is at capacity.
type ListingCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[common.Address]*domain.ListingStatus
	nowFn      func() time.Time
}

// NewListingCache creates a listing cache. Non-positive ttl or maxEntries
// fall back to the defaults.
func NewListingCache(ttl time.Duration, maxEntries int) *ListingCache {
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultListingMaxEntries
	}
	return &ListingCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[common.Address]*domain.ListingStatus),
		nowFn:      time.Now,
	}
}

// Get returns the cached status. Returns ErrNotFound if absent or expired.
func (c *ListingCache) Get(_ context.Context, token common.Address) (*domain.ListingStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status, ok := c.entries[token]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if c.expired(status) {
		delete(c.entries, token)
		return nil, storage.ErrNotFound
	}

	statusCopy := *status
	return &statusCopy, nil
}

// Put stores a decision, overwriting any previous entry for the token.
func (c *ListingCache) Put(_ context.Context, status *domain.ListingStatus) error {
	if status == nil || status.State == domain.ListingUnknown {
		return storage.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[status.Token]; !ok && len(c.entries) >= c.maxEntries {
		c.sweepLocked()
		if len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}

	statusCopy := *status
	if statusCopy.CachedAt == 0 {
		statusCopy.CachedAt = c.nowFn().UnixMilli()
	}
	c.entries[status.Token] = &statusCopy
	return nil
}

// Len returns the number of entries currently held, expired ones included.
func (c *ListingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *ListingCache) expired(status *domain.ListingStatus) bool {
	age := c.nowFn().UnixMilli() - status.CachedAt
	return age > c.ttl.Milliseconds()
}

func (c *ListingCache) sweepLocked() {
	for token, status := range c.entries {
		if c.expired(status) {
			delete(c.entries, token)
		}
	}
}

func (c *ListingCache) evictOldestLocked() {
	var (
		oldest   common.Address
		oldestAt int64
		found    bool
	)
	for token, status := range c.entries {
		if !found || status.CachedAt < oldestAt {
			oldest = token
			oldestAt = status.CachedAt
			found = true
		}
	}
	if found {
		delete(c.entries, oldest)
	}
}

var _ storage.ListingCache = (*ListingCache)(nil)
