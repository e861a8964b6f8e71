// Package tasks runs background work that must outlive the request that scheduled it.
package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrClosed is returned by Go once the registry has started shutting down.
var ErrClosed = errors.New("task registry is closed")

// Registry tracks fire-and-forget tasks so the process is not torn down before they settle.
//
// Tasks run on a context detached from any request: cancelling the request that
// scheduled a task does not cancel the task.
type Registry struct {
	logger *zap.SugaredLogger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	pending atomic.Int64
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.SugaredLogger) *Registry {
	return &Registry{logger: logger}
}

// Go runs fn in the background. A non-nil error or a panic from fn is logged and dropped.
func (r *Registry) Go(name string, fn func(ctx context.Context) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}

	r.wg.Add(1)
	r.pending.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.pending.Add(-1)
		defer func() {
			if p := recover(); p != nil {
				r.logger.Errorw("background task panicked", "task", name, "panic", p)
			}
		}()

		if err := fn(context.Background()); err != nil {
			r.logger.Warnw("background task failed", "task", name, "error", err)
		}
	}()
	return nil
}

// Pending returns the number of tasks that have not settled yet.
func (r *Registry) Pending() int64 {
	return r.pending.Load()
}

// Wait blocks until every task submitted so far has settled.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// Shutdown stops accepting new tasks and waits for the submitted ones to settle
// or for ctx to expire, whichever comes first.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		r.logger.Warnw("shutdown before background tasks settled", "pending", r.Pending())
		return ctx.Err()
	}
}
