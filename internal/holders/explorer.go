package holders

import (
	"context"
	"log"

	"github.com/ethereum/go-ethereum/common"

	"approval-watch/internal/observability"
)

// FailOpenSentinel is the estimate reported when the explorer cannot
// answer. It exceeds any sane threshold, so lookup failures drop the token
// rather than alert on it.
const FailOpenSentinel = 9999

// HolderAPI is the explorer access ExplorerEstimator needs.
type HolderAPI interface {
	HolderCount(ctx context.Context, token common.Address) (int, error)
}

// ExplorerEstimator asks a block explorer for the size of a token's holder
// list.
type ExplorerEstimator struct {
	api    HolderAPI
	logger *log.Logger
}

// NewExplorerEstimator creates an ExplorerEstimator.
func NewExplorerEstimator(api HolderAPI, logger *log.Logger) *ExplorerEstimator {
	if logger == nil {
		logger = log.Default()
	}
	return &ExplorerEstimator{api: api, logger: logger}
}

// Estimate returns the explorer's holder count, or FailOpenSentinel when
// the lookup fails.
func (e *ExplorerEstimator) Estimate(ctx context.Context, token common.Address) int {
	count, err := e.api.HolderCount(ctx, token)
	if err != nil {
		e.logger.Printf("holder lookup for %s: %v", token.Hex(), err)
		observability.RecordHolderFallback(StrategyExplorer)
		return FailOpenSentinel
	}
	return count
}
