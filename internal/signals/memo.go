package signals

import (
	"context"
	"errors"
	"sync"
)

// memo holds one lazily computed value. Concurrent callers share a single
// computation. A failure caused by cancellation is not kept, so a later
// caller with a live context computes again.
type memo[T any] struct {
	mu    sync.Mutex
	done  bool
	value T
	err   error
}

func (m *memo[T]) get(ctx context.Context, compute func(context.Context) (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return m.value, m.err
	}
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	value, err := compute(ctx)
	if err != nil && (ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return value, err
	}
	m.value, m.err, m.done = value, err, true
	return value, err
}
