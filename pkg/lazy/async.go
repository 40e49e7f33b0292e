package lazy

import (
	"context"
)

// AsyncValue is the context-aware counterpart of Value. The initializer runs
// in its own goroutine and may itself block; callers wait on the cell's done
// channel and their own ctx.Done(), so a cancelled caller stops waiting
// without disturbing initialization or leaving anything behind.
//
// An AsyncValue must not be copied after first use.
type AsyncValue[T any] struct {
	cell[T]

	init func(ctx context.Context) (T, error)
}

// NewAsync creates an uninitialized AsyncValue. The initializer is invoked
// at most once, on the first Get, in a goroutine owned by the cell.
func NewAsync[T any](init func(ctx context.Context) (T, error)) *AsyncValue[T] {
	v := &AsyncValue[T]{init: init}
	v.done = make(chan struct{})

	return v
}

// Get returns the contained value, triggering initialization on first call.
//
// Initialization is owned by the cell, not by the caller that happened to
// trigger it: the initializer runs with the caller's context values but
// detached from its cancellation, so cancelling that caller cannot abort or
// poison the cell for everyone else. A caller whose ctx is cancelled while
// waiting gets ctx.Err(); the cell still resolves and later calls see the
// result.
func (v *AsyncValue[T]) Get(ctx context.Context) (T, error) {
	if v.settled() {
		return v.result()
	}

	if v.state.CompareAndSwap(int32(StateUninitialized), int32(StateInitializing)) {
		init := v.init
		v.init = nil

		go v.run(context.WithoutCancel(ctx), init)
	}

	select {
	case <-v.done:
		return v.result()
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}

// Done returns a channel that is closed once the cell settles, successfully
// or not. It allows waiting on an AsyncValue in a select; pair it with
// Result to read the outcome.
func (v *AsyncValue[T]) Done() <-chan struct{} {
	return v.done
}

func (v *AsyncValue[T]) run(ctx context.Context, init func(ctx context.Context) (T, error)) {
	defer func() {
		if r := recover(); r != nil {
			v.poison(PanicError{Recovered: r})
		}
	}()

	value, err := init(ctx)
	if err != nil {
		v.poison(err)

		return
	}

	v.resolve(value)
}
