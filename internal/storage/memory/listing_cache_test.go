package memory

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"approval-watch/internal/domain"
	"approval-watch/internal/storage"
)

func TestListingCache_PutAndGet(t *testing.T) {
	ctx := context.Background()
	cache := NewListingCache(time.Minute, 10)

	token := addrN(1)
	err := cache.Put(ctx, &domain.ListingStatus{
		Token: token,
		State: domain.ListingListed,
		Venue: "v3:3000",
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := cache.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.State != domain.ListingListed {
		t.Errorf("Expected state LISTED, got %s", got.State)
	}
	if got.Venue != "v3:3000" {
		t.Errorf("Expected venue v3:3000, got %s", got.Venue)
	}
	if got.CachedAt == 0 {
		t.Error("Expected CachedAt to be filled on Put")
	}
}

func TestListingCache_GetMissing(t *testing.T) {
	ctx := context.Background()
	cache := NewListingCache(time.Minute, 10)

	_, err := cache.Get(ctx, addrN(1))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListingCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewListingCache(10*time.Minute, 10)

	now := time.Unix(1700000000, 0)
	cache.nowFn = func() time.Time { return now }

	token := addrN(1)
	if err := cache.Put(ctx, &domain.ListingStatus{Token: token, State: domain.ListingNotListed}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	now = now.Add(9 * time.Minute)
	if _, err := cache.Get(ctx, token); err != nil {
		t.Errorf("Expected entry to survive inside TTL, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := cache.Get(ctx, token); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after TTL, got %v", err)
	}
}

func TestListingCache_PutValidation(t *testing.T) {
	ctx := context.Background()
	cache := NewListingCache(time.Minute, 10)

	if err := cache.Put(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil status, got %v", err)
	}

	err := cache.Put(ctx, &domain.ListingStatus{Token: addrN(1), State: domain.ListingUnknown})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for UNKNOWN state, got %v", err)
	}
}

func TestListingCache_Overwrite(t *testing.T) {
	ctx := context.Background()
	cache := NewListingCache(time.Minute, 10)

	token := addrN(1)
	if err := cache.Put(ctx, &domain.ListingStatus{Token: token, State: domain.ListingNotListed}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := cache.Put(ctx, &domain.ListingStatus{Token: token, State: domain.ListingListed, Venue: "v2"}); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}

	got, err := cache.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.State != domain.ListingListed {
		t.Errorf("Expected overwritten state LISTED, got %s", got.State)
	}
	if cache.Len() != 1 {
		t.Errorf("Expected Len 1 after overwrite, got %d", cache.Len())
	}
}

func TestListingCache_CapacityEviction(t *testing.T) {
	ctx := context.Background()
	cache := NewListingCache(10*time.Minute, 2)

	now := time.Unix(1700000000, 0)
	cache.nowFn = func() time.Time { return now }

	for i := 1; i <= 3; i++ {
		err := cache.Put(ctx, &domain.ListingStatus{Token: addrN(i), State: domain.ListingNotListed})
		if err != nil {
			t.Fatalf("Put %d failed: %v", i, err)
		}
		now = now.Add(time.Second)
	}

	if cache.Len() != 2 {
		t.Errorf("Expected Len 2 at capacity, got %d", cache.Len())
	}
	if _, err := cache.Get(ctx, addrN(1)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected oldest entry evicted, got %v", err)
	}
	if _, err := cache.Get(ctx, addrN(3)); err != nil {
		t.Errorf("Expected newest entry retained, got %v", err)
	}
}

func addrN(i int) common.Address {
	return common.BigToAddress(big.NewInt(int64(i) + 100))
}
