// Package result provides the internal success-or-diagnostic type shared by
// the command bridge and the request handler. Conversion to the host's
// {code, data} envelope happens only at the handler boundary.
package result

import "fmt"

// Result holds either a value or a human-readable diagnostic.
type Result[T any] struct {
	value      T
	diagnostic string
	failed     bool
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail wraps a diagnostic.
func Fail[T any](diagnostic string) Result[T] {
	return Result[T]{diagnostic: diagnostic, failed: true}
}

// Failf formats a diagnostic.
func Failf[T any](format string, args ...interface{}) Result[T] {
	return Fail[T](fmt.Sprintf(format, args...))
}

// IsOk reports whether the result holds a value.
func (r Result[T]) IsOk() bool { return !r.failed }

// Value returns the wrapped value. It is the zero value for failed results.
func (r Result[T]) Value() T { return r.value }

// Diagnostic returns the failure description, or "" for successful results.
func (r Result[T]) Diagnostic() string { return r.diagnostic }
