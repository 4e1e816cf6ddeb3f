package monads

import "sync"

// Thunk is a lazily computed, memoized value. The computation runs at most
// once, on the first Force, even under concurrent callers.
type Thunk[T any] struct {
	once    sync.Once
	compute func() T
	value   T
}

// Lazy wraps a computation without running it.
func Lazy[T any](compute func() T) *Thunk[T] {
	return &Thunk[T]{compute: compute}
}

// Force evaluates the thunk if needed and returns the memoized value.
func (t *Thunk[T]) Force() T {
	t.once.Do(func() {
		t.value = t.compute()
		t.compute = nil
	})
	return t.value
}
