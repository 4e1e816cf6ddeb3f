// Package monads provides small generic containers for fallible, optional
// and lazy values. It is self-contained and imports nothing from the rest
// of the module.
package monads

// Result holds either a value or an error, never both.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err wraps a failure.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// IsOk reports whether the result holds a value.
func (r Result[T]) IsOk() bool { return r.err == nil }

// Unwrap returns the value and the error in Go's usual shape.
func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }

// UnwrapOr returns the value, or fallback when the result is an error.
func (r Result[T]) UnwrapOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// Match invokes exactly one of the callbacks.
func (r Result[T]) Match(onOk func(T), onErr func(error)) {
	if r.err != nil {
		onErr(r.err)
		return
	}
	onOk(r.value)
}

// MapResult transforms the value of an Ok result; errors pass through.
// A free function because Go methods cannot introduce type parameters.
func MapResult[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return Ok(fn(r.value))
}

// AndThen chains a fallible transformation; errors short-circuit.
func AndThen[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return fn(r.value)
}
