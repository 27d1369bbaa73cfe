package watch

import (
	"context"
	"log"
	"time"

	"approval-watch/internal/observability"
)

// Default loop timing.
const (
	DefaultPollInterval = 1 * time.Second
	DefaultRetryDelay   = 5 * time.Second
)

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Heads        HeadSource
	Blocks       BlockFetcher
	Dispatcher   *Dispatcher
	Eval         EvalFunc
	PollInterval time.Duration
	RetryDelay   time.Duration
	Logger       *log.Logger
}

// Runner drives the poll loop: watch the head, fetch each newly advanced
// block, dispatch its transactions, and only then move the local height
// pointer. Height tracking is strictly monotonic; reorgs are not handled.
type Runner struct {
	heads        HeadSource
	blocks       BlockFetcher
	dispatcher   *Dispatcher
	eval         EvalFunc
	pollInterval time.Duration
	retryDelay   time.Duration
	logger       *log.Logger

	lastHeight uint64
}

// NewRunner creates a new watch runner.
func NewRunner(opts RunnerOptions) *Runner {
	pollInterval := opts.PollInterval
	if pollInterval == 0 {
		pollInterval = DefaultPollInterval
	}

	retryDelay := opts.RetryDelay
	if retryDelay == 0 {
		retryDelay = DefaultRetryDelay
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		heads:        opts.Heads,
		blocks:       opts.Blocks,
		dispatcher:   opts.Dispatcher,
		eval:         opts.Eval,
		pollInterval: pollInterval,
		retryDelay:   retryDelay,
		logger:       logger,
	}
}

// Run blocks until ctx is cancelled. Head and block fetch errors are
// logged and retried after a fixed delay; the loop itself never gives up.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Printf("watch loop started, poll interval %v", r.pollInterval)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		head, err := r.heads.Head(ctx)
		if err != nil {
			observability.RecordPollError()
			r.logger.Printf("read head: %v", err)
			if err := sleepCtx(ctx, r.retryDelay); err != nil {
				return err
			}
			continue
		}
		observability.UpdateHeadHeight(head)

		if head <= r.lastHeight {
			if err := sleepCtx(ctx, r.pollInterval); err != nil {
				return err
			}
			continue
		}

		block, err := r.blocks.BlockByNumber(ctx, head)
		if err != nil {
			observability.RecordPollError()
			r.logger.Printf("fetch block %d: %v", head, err)
			if err := sleepCtx(ctx, r.retryDelay); err != nil {
				return err
			}
			continue
		}

		start := time.Now()
		r.dispatcher.Dispatch(ctx, head, block.Transactions(), r.eval)
		observability.RecordBlockProcessed(time.Since(start).Seconds())

		r.lastHeight = head
		r.logger.Printf("block %d done, %d txs", head, len(block.Transactions()))
	}
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
