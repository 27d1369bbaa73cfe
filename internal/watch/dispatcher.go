package watch

import (
	"context"
	"log"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"

	"approval-watch/internal/observability"
)

// DefaultWorkers bounds concurrent evaluations within one block.
const DefaultWorkers = 10

// EvalFunc evaluates one transaction of a block.
type EvalFunc func(ctx context.Context, height uint64, tx *types.Transaction) error

// Dispatcher fans a block's transactions out to a bounded set of workers
// and joins them before returning.
type Dispatcher struct {
	workers int
	logger  *log.Logger
}

// NewDispatcher creates a Dispatcher. Non-positive worker counts fall back
// to the default.
func NewDispatcher(workers int, logger *log.Logger) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{workers: workers, logger: logger}
}

// Dispatch evaluates every transaction and returns once all have finished.
// Errors and panics stay contained to their transaction; neither aborts
// the rest of the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, height uint64, txs types.Transactions, eval EvalFunc) {
	sem := make(chan struct{}, d.workers)
	var wg sync.WaitGroup

	for _, tx := range txs {
		wg.Add(1)
		sem <- struct{}{}

		go func(tx *types.Transaction) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if rec := recover(); rec != nil {
					observability.RecordEvalPanic()
					d.logger.Printf("panic evaluating tx %s: %v", tx.Hash().Hex(), rec)
				}
			}()

			if err := eval(ctx, height, tx); err != nil {
				d.logger.Printf("evaluate tx %s: %v", tx.Hash().Hex(), err)
			}
		}(tx)
	}

	wg.Wait()
}
