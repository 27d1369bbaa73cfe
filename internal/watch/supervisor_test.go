package watch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisor_RestartsAfterFailure(t *testing.T) {
	var runs atomic.Int32
	loop := func(ctx context.Context) error {
		if runs.Add(1) <= 2 {
			return errors.New("rpc connection dropped")
		}
		<-ctx.Done()
		return ctx.Err()
	}

	sup := NewSupervisor(2*time.Millisecond, 0, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx, loop) }()

	require.Eventually(t, func() bool { return runs.Load() >= 3 },
		time.Second, 2*time.Millisecond, "loop should be relaunched after failures")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop after cancellation")
	}
}

func TestSupervisor_RecoversPanic(t *testing.T) {
	var runs atomic.Int32
	loop := func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			panic("nil head source")
		}
		<-ctx.Done()
		return ctx.Err()
	}

	sup := NewSupervisor(2*time.Millisecond, 0, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx, loop) }()

	require.Eventually(t, func() bool { return runs.Load() == 2 },
		time.Second, 2*time.Millisecond, "panicking loop should be relaunched")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop after cancellation")
	}
}

func TestSupervisor_RestartBudgetExhausted(t *testing.T) {
	loopErr := errors.New("persistent failure")
	var runs atomic.Int32
	loop := func(_ context.Context) error {
		runs.Add(1)
		return loopErr
	}

	sup := NewSupervisor(2*time.Millisecond, 2, testLogger())

	err := sup.Run(context.Background(), loop)

	require.Error(t, err)
	assert.ErrorIs(t, err, loopErr)
	assert.Contains(t, err.Error(), "restart budget exhausted")
	assert.Equal(t, int32(3), runs.Load(), "budget of 2 restarts allows 3 runs total")
}

func TestSupervisor_StopsOnCancel(t *testing.T) {
	var runs atomic.Int32
	loop := func(ctx context.Context) error {
		runs.Add(1)
		<-ctx.Done()
		return ctx.Err()
	}

	sup := NewSupervisor(2*time.Millisecond, 0, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx, loop) }()

	require.Eventually(t, func() bool { return runs.Load() == 1 },
		time.Second, 2*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(1), runs.Load(), "healthy loop should not be relaunched")
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop after cancellation")
	}
}

func TestSupervisor_NilErrorTreatedAsFailure(t *testing.T) {
	var runs atomic.Int32
	loop := func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			return nil
		}
		<-ctx.Done()
		return ctx.Err()
	}

	sup := NewSupervisor(2*time.Millisecond, 0, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx, loop) }()

	require.Eventually(t, func() bool { return runs.Load() == 2 },
		time.Second, 2*time.Millisecond, "a loop that returns nil is still relaunched")

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop after cancellation")
	}
}
