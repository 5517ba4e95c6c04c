// Package result provides a two-variant success/failure container used by
// the scraping client for every fallible network operation, so callers
// always receive a value instead of a propagated error.
package result

// Result holds either a success value of type T or a failure value of type E.
// The zero value is a failure with the zero E.
type Result[E, T any] struct {
	ok    bool
	value T
	err   E
}

func Ok[E, T any](value T) Result[E, T] {
	return Result[E, T]{ok: true, value: value}
}

func Err[E, T any](err E) Result[E, T] {
	return Result[E, T]{err: err}
}

func (r Result[E, T]) IsSuccess() bool {
	return r.ok
}

func (r Result[E, T]) IsFailure() bool {
	return !r.ok
}

// Value returns the success payload. Only meaningful when IsSuccess.
func (r Result[E, T]) Value() T {
	return r.value
}

// Error returns the failure payload. Only meaningful when IsFailure.
func (r Result[E, T]) Error() E {
	return r.err
}

// ApplyOnSuccess maps the success payload through fn, propagating a failure
// unchanged. Declared as a function since Go methods cannot introduce new
// type parameters.
func ApplyOnSuccess[E, T, U any](r Result[E, T], fn func(T) U) Result[E, U] {
	if r.IsFailure() {
		return Err[E, U](r.Error())
	}
	return Ok[E](fn(r.Value()))
}
