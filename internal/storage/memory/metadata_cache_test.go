package memory

import (
	"context"
	"errors"
	"testing"

	"approval-watch/internal/domain"
	"approval-watch/internal/storage"
)

func TestMetadataCache_PutAndGet(t *testing.T) {
	ctx := context.Background()
	cache := NewMetadataCache()

	token := addrN(1)
	err := cache.Put(ctx, &domain.TokenMetadata{
		Token:    token,
		Name:     "Test Token",
		Symbol:   "TEST",
		Decimals: 6,
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := cache.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Test Token" || got.Symbol != "TEST" || got.Decimals != 6 {
		t.Errorf("Expected metadata to round-trip, got %+v", got)
	}
}

func TestMetadataCache_GetMissing(t *testing.T) {
	ctx := context.Background()
	cache := NewMetadataCache()

	_, err := cache.Get(ctx, addrN(1))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMetadataCache_NilPut(t *testing.T) {
	ctx := context.Background()
	cache := NewMetadataCache()

	if err := cache.Put(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestMetadataCache_CopySemantics(t *testing.T) {
	ctx := context.Background()
	cache := NewMetadataCache()

	token := addrN(1)
	if err := cache.Put(ctx, &domain.TokenMetadata{Token: token, Name: "Original", Symbol: "ORG", Decimals: 18}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := cache.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got.Name = "Mutated"

	again, err := cache.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if again.Name != "Original" {
		t.Errorf("Expected cached entry to be isolated from callers, got %s", again.Name)
	}
}
