// Package lazy provides containers that defer a computation until first
// access, run it exactly once under arbitrary concurrency, and cache the
// result for the lifetime of the container.
//
// Value is the blocking variant; AsyncValue is the context-aware variant
// whose waiters can be cancelled. A failed initializer permanently poisons
// the cell: every past, present, and future accessor receives the same error
// and the initializer is never retried.
package lazy

import (
	"fmt"
	"sync/atomic"
)

// State describes where a cell is in its lifecycle. States only ever move
// forward: StateInitialized and StatePoisoned are terminal.
type State int32

const (
	// StateUninitialized means the initializer has not been triggered yet.
	StateUninitialized State = iota
	// StateInitializing means the initializer is currently running.
	StateInitializing
	// StateInitialized means the value is stored and immutable.
	StateInitialized
	// StatePoisoned means the initializer failed. The cell will never hold
	// a value and every access returns the stored error.
	StatePoisoned
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateInitialized:
		return "initialized"
	case StatePoisoned:
		return "poisoned"
	default:
		return fmt.Sprintf("unknown state (%d)", int32(s))
	}
}

// NotInitializedError is returned by Result when the cell has not resolved
// yet. It does not mean the cell failed, only that the answer isn't known.
type NotInitializedError struct{}

func (NotInitializedError) Error() string {
	return "lazy: value not initialized"
}

// PanicError wraps a panic recovered from an initializer. The cell that
// produced it is permanently poisoned.
type PanicError struct {
	Recovered any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("lazy: initializer panicked: %v", e.Recovered)
}

// cell is the state machine shared by Value and AsyncValue. The done channel
// doubles as the waiter list: accessors that arrive mid-initialization park
// on it, and the single close both wakes all of them and publishes
// value/err (all stores happen before the close / the terminal state store).
type cell[T any] struct {
	state atomic.Int32
	done  chan struct{}

	// Written exactly once, before the terminal state is published.
	value T
	err   error
}

func (c *cell[T]) resolve(value T) {
	c.value = value
	c.state.Store(int32(StateInitialized))
	close(c.done)
}

func (c *cell[T]) poison(err error) {
	c.err = err
	c.state.Store(int32(StatePoisoned))
	close(c.done)
}

// settled reports whether the cell reached a terminal state.
func (c *cell[T]) settled() bool {
	s := State(c.state.Load())

	return s == StateInitialized || s == StatePoisoned
}

// result reads the published outcome. Only valid after the cell settled.
func (c *cell[T]) result() (T, error) {
	if State(c.state.Load()) == StatePoisoned {
		var zero T

		return zero, c.err
	}

	return c.value, nil
}

// Result returns the outcome if the cell already settled, without triggering
// or waiting for initialization. Before that it returns NotInitializedError.
func (c *cell[T]) Result() (T, error) {
	if !c.settled() {
		var zero T

		return zero, NotInitializedError{}
	}

	return c.result()
}

// State returns the cell's current state. It is a snapshot: by the time the
// caller looks at it, StateUninitialized or StateInitializing may already be
// stale. The terminal states are reliable.
func (c *cell[T]) State() State {
	return State(c.state.Load())
}
