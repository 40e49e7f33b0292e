package lazy

// Value is a container whose content is computed by a one-shot initializer
// on first Get. Concurrent callers race for the right to run the
// initializer; exactly one wins and the rest block until it publishes.
// After that every Get returns the cached result without synchronization
// beyond a single atomic load.
//
// A Value must not be copied after first use.
type Value[T any] struct {
	cell[T]

	init func() (T, error)
}

// New creates an uninitialized Value. No T is constructed until the first
// Get. The initializer is invoked at most once, ever; the reference is
// dropped after that single invocation so its captures can be collected.
//
// The initializer must not call Get on its own cell: the reentrant call
// parks on a channel only the initializer itself can close, which is a
// self-deadlock.
func New[T any](init func() (T, error)) *Value[T] {
	v := &Value[T]{init: init}
	v.done = make(chan struct{})

	return v
}

// NewResolved creates a Value that already holds the given value. Accessors
// hit the fast path immediately and no initializer ever runs.
func NewResolved[T any](value T) *Value[T] {
	v := &Value[T]{}
	v.value = value
	v.state.Store(int32(StateInitialized))
	v.done = make(chan struct{})
	close(v.done)

	return v
}

// Get returns the contained value, initializing it on first call. Callers
// that arrive while another goroutine is initializing block until the
// outcome is published, then all observe the identical result.
//
// If the initializer returned an error or panicked, the cell is poisoned:
// Get returns that error (panics wrapped in PanicError) now and forever.
func (v *Value[T]) Get() (T, error) {
	if v.settled() {
		return v.result()
	}

	if v.state.CompareAndSwap(int32(StateUninitialized), int32(StateInitializing)) {
		v.run()

		return v.result()
	}

	// Lost the race, park until the winner publishes.
	<-v.done

	return v.result()
}

// MustGet is Get for initializers that cannot fail; it panics on error.
func (v *Value[T]) MustGet() T {
	value, err := v.Get()
	if err != nil {
		panic(err)
	}

	return value
}

func (v *Value[T]) run() {
	init := v.init
	v.init = nil

	defer func() {
		if r := recover(); r != nil {
			v.poison(PanicError{Recovered: r})
		}
	}()

	value, err := init()
	if err != nil {
		v.poison(err)

		return
	}

	v.resolve(value)
}
