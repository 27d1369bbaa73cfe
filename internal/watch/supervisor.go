package watch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"approval-watch/internal/observability"
)

// DefaultRestartDelay is the pause before relaunching a failed loop.
const DefaultRestartDelay = 10 * time.Second

// Loop is a long-running task the supervisor keeps alive.
type Loop func(ctx context.Context) error

// Supervisor relaunches a loop after failures and panics so transient
// trouble never kills the process. Only ctx cancellation, or an exhausted
// restart budget, stops it.
type Supervisor struct {
	restartDelay time.Duration
	maxRestarts  int // 0 means unbounded
	logger       *log.Logger
}

// NewSupervisor creates a Supervisor. A zero restartDelay falls back to
// the default; maxRestarts of zero restarts forever.
func NewSupervisor(restartDelay time.Duration, maxRestarts int, logger *log.Logger) *Supervisor {
	if restartDelay == 0 {
		restartDelay = DefaultRestartDelay
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Supervisor{
		restartDelay: restartDelay,
		maxRestarts:  maxRestarts,
		logger:       logger,
	}
}

// Run executes the loop, restarting it after every failure until ctx is
// cancelled or the restart budget is spent.
func (s *Supervisor) Run(ctx context.Context, loop Loop) error {
	restarts := 0

	for {
		err := s.runOnce(ctx, loop)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			err = errors.New("loop exited unexpectedly")
		}

		restarts++
		if s.maxRestarts > 0 && restarts > s.maxRestarts {
			return fmt.Errorf("restart budget exhausted after %d restarts: %w", restarts-1, err)
		}

		observability.RecordLoopRestart()
		s.logger.Printf("loop failed, restarting in %v: %v", s.restartDelay, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.restartDelay):
		}
	}
}

// runOnce converts a panic inside the loop into an error.
func (s *Supervisor) runOnce(ctx context.Context, loop Loop) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("loop panic: %v", rec)
		}
	}()
	return loop(ctx)
}
