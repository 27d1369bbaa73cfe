// Package report delivers qualifying alerts to their destinations.
package report

import (
	"context"

	"approval-watch/internal/domain"
)

// Reporter delivers one alert. Implementations must be safe for concurrent
// use; evaluators report from multiple goroutines.
type Reporter interface {
	Report(ctx context.Context, alert *domain.Alert) error
}
