package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSettleAll_IsolatesFailures(t *testing.T) {
	var ran atomic.Int32
	results := SettleAll(context.Background(),
		Task{Name: "ok-1", Run: func(ctx context.Context) error { ran.Add(1); return nil }},
		Task{Name: "fails", Run: func(ctx context.Context) error { ran.Add(1); return errors.New("boom") }},
		Task{Name: "panics", Run: func(ctx context.Context) error { ran.Add(1); panic("bad") }},
		Task{Name: "ok-2", Run: func(ctx context.Context) error { ran.Add(1); return nil }},
	)

	require.Len(t, results, 4)
	assert.Equal(t, int32(4), ran.Load())
	assert.Equal(t, "ok-1", results[0].Name)
	assert.NoError(t, results[0].Err)
	assert.EqualError(t, results[1].Err, "boom")
	assert.Error(t, results[2].Err)
	assert.NoError(t, results[3].Err)

	failed := Failed(results)
	assert.Len(t, failed, 2)
}

func TestSettleAll_Empty(t *testing.T) {
	assert.Empty(t, SettleAll(context.Background()))
}

func TestRegistry_ShutdownWaitsForTasks(t *testing.T) {
	reg := NewRegistry(zap.NewNop().Sugar())
	release := make(chan struct{})
	var done atomic.Bool

	require.NoError(t, reg.Go("slow", func(ctx context.Context) error {
		<-release
		done.Store(true)
		return nil
	}))
	assert.Equal(t, int64(1), reg.Pending())

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, reg.Shutdown(ctx))
	assert.True(t, done.Load())
	assert.Zero(t, reg.Pending())

	assert.ErrorIs(t, reg.Go("late", func(ctx context.Context) error { return nil }), ErrClosed)
}

func TestRegistry_ShutdownDeadline(t *testing.T) {
	reg := NewRegistry(zap.NewNop().Sugar())
	release := make(chan struct{})
	defer close(release)

	require.NoError(t, reg.Go("stuck", func(ctx context.Context) error {
		<-release
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, reg.Shutdown(ctx), context.DeadlineExceeded)
}

func TestRegistry_TaskErrorsAndPanicsAreContained(t *testing.T) {
	reg := NewRegistry(zap.NewNop().Sugar())

	require.NoError(t, reg.Go("fails", func(ctx context.Context) error { return errors.New("nope") }))
	require.NoError(t, reg.Go("panics", func(ctx context.Context) error { panic("nope") }))

	var deadline atomic.Bool
	require.NoError(t, reg.Go("unbounded", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		deadline.Store(ok)
		return ctx.Err()
	}))

	reg.Wait()
	assert.False(t, deadline.Load(), "background tasks run to completion without a deadline")
	assert.Zero(t, reg.Pending())
}
