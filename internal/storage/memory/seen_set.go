package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"approval-watch/internal/storage"
)

// DefaultSeenCapacity bounds the dedup window when no capacity is given.
const DefaultSeenCapacity = 5000

// SeenSet is an in-memory implementation of storage.SeenSet: a fixed-size
// ring of transaction hashes with an index map for O(1) membership checks.
type SeenSet struct {
	mu    sync.Mutex
	ring  []common.Hash
	index map[common.Hash]struct{}
	next  int
	full  bool
}

// NewSeenSet creates a seen set holding at most capacity hashes.
// Non-positive capacity falls back to DefaultSeenCapacity.
func NewSeenSet(capacity int) *SeenSet {
	if capacity <= 0 {
		capacity = DefaultSeenCapacity
	}
	return &SeenSet{
		ring:  make([]common.Hash, capacity),
		index: make(map[common.Hash]struct{}, capacity),
	}
}

// Contains reports whether hash is inside the dedup window.
func (s *SeenSet) Contains(_ context.Context, hash common.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.index[hash]
	return ok
}

// Record inserts hash, evicting the oldest recorded hash once the ring is
// full. Recording a hash already present is a no-op, which keeps the ring
// and the index consistent under concurrent racers.
func (s *SeenSet) Record(_ context.Context, hash common.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[hash]; ok {
		return
	}

	if s.full {
		delete(s.index, s.ring[s.next])
	}

	s.ring[s.next] = hash
	s.index[hash] = struct{}{}

	s.next++
	if s.next == len(s.ring) {
		s.next = 0
		s.full = true
	}
}

// Len returns the number of hashes currently retained.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.index)
}

var _ storage.SeenSet = (*SeenSet)(nil)
