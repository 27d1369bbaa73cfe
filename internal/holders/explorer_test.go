package holders

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

type fakeHolderAPI struct {
	count int
	err   error
}

func (f *fakeHolderAPI) HolderCount(_ context.Context, _ common.Address) (int, error) {
	return f.count, f.err
}

func TestExplorerEstimator_ReturnsCount(t *testing.T) {
	ctx := context.Background()
	estimator := NewExplorerEstimator(&fakeHolderAPI{count: 42}, testLogger())

	if got := estimator.Estimate(ctx, common.Address{}); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
}

func TestExplorerEstimator_FailureResolvesToSentinel(t *testing.T) {
	ctx := context.Background()
	estimator := NewExplorerEstimator(&fakeHolderAPI{err: errors.New("rate limited")}, testLogger())

	// Explorer failures resolve high so the token is dropped, the opposite
	// direction from the log scan fallback.
	if got := estimator.Estimate(ctx, common.Address{}); got != FailOpenSentinel {
		t.Errorf("Expected sentinel %d, got %d", FailOpenSentinel, got)
	}
}
