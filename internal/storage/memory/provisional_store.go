package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"approval-watch/internal/storage"
)

// Defaults for the provisional-new store.
const (
	DefaultGraceWindow         = 10 * time.Minute
	DefaultProvisionalMaxMarks = 10000
)

// ProvisionalStore is an in-memory implementation of storage.ProvisionalStore:
// a timestamp per token, suppressing repeat alerts inside the grace window.
type ProvisionalStore struct {
	mu       sync.Mutex
	grace    time.Duration
	maxMarks int
	marks    map[common.Address]int64 // Unix ms when marked
	nowFn    func() time.Time
}

// NewProvisionalStore creates a provisional-new store. Non-positive grace
// or maxMarks fall back to the defaults.
func NewProvisionalStore(grace time.Duration, maxMarks int) *ProvisionalStore {
	if grace <= 0 {
		grace = DefaultGraceWindow
	}
	if maxMarks <= 0 {
		maxMarks = DefaultProvisionalMaxMarks
	}
	return &ProvisionalStore{
		grace:    grace,
		maxMarks: maxMarks,
		marks:    make(map[common.Address]int64),
		nowFn:    time.Now,
	}
}

// Suppressed reports whether token was marked inside the grace window.
// Expired marks are dropped on read.
func (s *ProvisionalStore) Suppressed(_ context.Context, token common.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	markedAt, ok := s.marks[token]
	if !ok {
		return false
	}
	if s.nowFn().UnixMilli()-markedAt > s.grace.Milliseconds() {
		delete(s.marks, token)
		return false
	}
	return true
}

// Mark timestamps token as provisionally new, refreshing any earlier mark.
func (s *ProvisionalStore) Mark(_ context.Context, token common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn().UnixMilli()

	if _, ok := s.marks[token]; !ok && len(s.marks) >= s.maxMarks {
		s.sweepLocked(now)
		if len(s.marks) >= s.maxMarks {
			s.evictOldestLocked()
		}
	}

	s.marks[token] = now
	return nil
}

// Len returns the number of marks currently held, expired ones included.
func (s *ProvisionalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.marks)
}

func (s *ProvisionalStore) sweepLocked(now int64) {
	for token, markedAt := range s.marks {
		if now-markedAt > s.grace.Milliseconds() {
			delete(s.marks, token)
		}
	}
}

func (s *ProvisionalStore) evictOldestLocked() {
	var (
		oldest   common.Address
		oldestAt int64
		found    bool
	)
	for token, markedAt := range s.marks {
		if !found || markedAt < oldestAt {
			oldest = token
			oldestAt = markedAt
			found = true
		}
	}
	if found {
		delete(s.marks, oldest)
	}
}

var _ storage.ProvisionalStore = (*ProvisionalStore)(nil)
