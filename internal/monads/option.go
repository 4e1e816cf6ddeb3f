package monads

// Option holds a value that may be absent.
type Option[T any] struct {
	value   T
	present bool
}

// Some wraps a present value.
func Some[T any](value T) Option[T] {
	return Option[T]{value: value, present: true}
}

// None is the absent value.
func None[T any]() Option[T] {
	return Option[T]{}
}

// IsSome reports whether a value is present.
func (o Option[T]) IsSome() bool { return o.present }

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) { return o.value, o.present }

// UnwrapOr returns the value, or fallback when absent.
func (o Option[T]) UnwrapOr(fallback T) T {
	if !o.present {
		return fallback
	}
	return o.value
}

// Filter keeps the value only when the predicate holds.
func (o Option[T]) Filter(pred func(T) bool) Option[T] {
	if !o.present || !pred(o.value) {
		return None[T]()
	}
	return o
}

// MapOption transforms a present value; absence passes through.
func MapOption[T, U any](o Option[T], fn func(T) U) Option[U] {
	if !o.present {
		return None[U]()
	}
	return Some(fn(o.value))
}
