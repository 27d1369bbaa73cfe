package report

import (
	"context"
	"errors"

	"approval-watch/internal/domain"
)

// MultiReporter fans one alert out to several destinations.
type MultiReporter struct {
	reporters []Reporter
}

var _ Reporter = (*MultiReporter)(nil)

// NewMultiReporter creates a MultiReporter over the given reporters.
func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	return &MultiReporter{reporters: reporters}
}

// Report delivers to every reporter and joins their errors. One failing
// destination does not starve the others.
func (m *MultiReporter) Report(ctx context.Context, alert *domain.Alert) error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.Report(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
