package storage

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"approval-watch/internal/domain"
)

// SeenSet is the bounded FIFO dedup gate over transaction hashes. It is a
// best-effort noise reducer, not a correctness guarantee: once capacity is
// reached the oldest hash is evicted and may be reprocessed if it arrives
// again.
type SeenSet interface {
	// Contains reports whether hash is inside the dedup window.
	Contains(ctx context.Context, hash common.Hash) bool

	// Record inserts hash, evicting the oldest entry once capacity is reached.
	// Recording a hash already present is a no-op.
	Record(ctx context.Context, hash common.Hash)
}

// ListingCache holds TTL-bounded listing decisions keyed by token address.
type ListingCache interface {
	// Get returns the cached status. Returns ErrNotFound if absent or expired.
	Get(ctx context.Context, token common.Address) (*domain.ListingStatus, error)

	// Put stores a decision, overwriting any previous entry for the token.
	Put(ctx context.Context, status *domain.ListingStatus) error
}

// ProvisionalStore tracks tokens already reported as unlisted so that a
// token alerts at most once per grace window. This is the re-alert
// suppression tier, deliberately separate from ListingCache.
type ProvisionalStore interface {
	// Suppressed reports whether token was marked inside the grace window.
	Suppressed(ctx context.Context, token common.Address) bool

	// Mark timestamps token as provisionally new, refreshing any earlier mark.
	Mark(ctx context.Context, token common.Address) error
}

// MetadataCache holds lazily fetched token metadata.
type MetadataCache interface {
	// Get returns cached metadata. Returns ErrNotFound if absent.
	Get(ctx context.Context, token common.Address) (*domain.TokenMetadata, error)

	// Put stores metadata for a token, overwriting any previous entry.
	Put(ctx context.Context, meta *domain.TokenMetadata) error
}

// AlertLog keeps the most recent alerts emitted by this process.
type AlertLog interface {
	// Append records an alert. Returns ErrDuplicateKey if the alert ID exists.
	Append(ctx context.Context, alert *domain.Alert) error

	// Recent returns up to n alerts, newest first.
	Recent(ctx context.Context, n int) ([]*domain.Alert, error)

	// Len returns the number of retained alerts.
	Len(ctx context.Context) int
}
