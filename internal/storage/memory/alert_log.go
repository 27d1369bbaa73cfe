package memory

import (
	"context"
	"sync"

	"approval-watch/internal/domain"
	"approval-watch/internal/storage"
)

// DefaultAlertLogCapacity bounds the alert log when no capacity is given.
const DefaultAlertLogCapacity = 1000

// AlertLog is an in-memory implementation of storage.AlertLog: a capped,
// append-only record of emitted alerts, oldest dropped first.
type AlertLog struct {
	mu       sync.Mutex
	capacity int
	alerts   []*domain.Alert // oldest first
	byID     map[string]struct{}
}

// NewAlertLog creates an alert log retaining at most capacity alerts.
// Non-positive capacity falls back to DefaultAlertLogCapacity.
func NewAlertLog(capacity int) *AlertLog {
	if capacity <= 0 {
		capacity = DefaultAlertLogCapacity
	}
	return &AlertLog{
		capacity: capacity,
		byID:     make(map[string]struct{}, capacity),
	}
}

// Append records an alert. Returns ErrDuplicateKey if the alert ID exists,
// ErrInvalidInput on a nil alert or empty ID.
func (l *AlertLog) Append(_ context.Context, alert *domain.Alert) error {
	if alert == nil || alert.ID == "" {
		return storage.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byID[alert.ID]; ok {
		return storage.ErrDuplicateKey
	}

	if len(l.alerts) >= l.capacity {
		evicted := l.alerts[0]
		l.alerts = l.alerts[1:]
		delete(l.byID, evicted.ID)
	}

	alertCopy := *alert
	l.alerts = append(l.alerts, &alertCopy)
	l.byID[alert.ID] = struct{}{}
	return nil
}

// Recent returns up to n alerts, newest first. Non-positive n returns all
// retained alerts.
func (l *AlertLog) Recent(_ context.Context, n int) ([]*domain.Alert, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.alerts) {
		n = len(l.alerts)
	}

	out := make([]*domain.Alert, 0, n)
	for i := len(l.alerts) - 1; i >= len(l.alerts)-n; i-- {
		alertCopy := *l.alerts[i]
		out = append(out, &alertCopy)
	}
	return out, nil
}

// Len returns the number of retained alerts.
func (l *AlertLog) Len(_ context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.alerts)
}

var _ storage.AlertLog = (*AlertLog)(nil)
