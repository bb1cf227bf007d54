// Package validation provides the result type and capability contracts used by
// every validating operation in confsync.
//
// A Result is a tagged success/error pair that always carries a usable value:
// on error the value is the caller-supplied fallback (typically the field's
// current or default value). Results compose across many fields in a single
// serialization pass via Report, which appends the error message to a shared
// collector without aborting the pass.
package validation

// Type selects the strictness of a validation or correction pass.
//
// Weak permits out-of-range values to pass with a reported error; it is used
// when loading possibly hand-edited files. Strong clamps or rejects more
// aggressively and is used for live in-game edits.
type Type int

const (
	// Weak tolerates and reports
	Weak Type = iota
	// Strong clamps and forces
	Strong
)

// String returns the string representation of the validation type
func (t Type) String() string {
	switch t {
	case Weak:
		return "weak"
	case Strong:
		return "strong"
	default:
		return "unknown"
	}
}

// Result is a tagged success/error result carrying a value plus an optional
// error message. Get always returns a usable value, even on error.
type Result[T any] struct {
	value T
	err   string
}

// Success creates a success-tagged result wrapping value
func Success[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Error creates an error-tagged result wrapping a safe fallback value
func Error[T any](fallback T, message string) Result[T] {
	if message == "" {
		message = "unknown error"
	}
	return Result[T]{value: fallback, err: message}
}

// Predicated returns Success(value) if ok is true, otherwise Error(value, message)
func Predicated[T any](value T, ok bool, message string) Result[T] {
	if ok {
		return Success(value)
	}
	return Error(value, message)
}

// IsError reports whether this result is error-tagged
func (r Result[T]) IsError() bool {
	return r.err != ""
}

// IsValid reports whether this result is success-tagged
func (r Result[T]) IsValid() bool {
	return r.err == ""
}

// Get returns the wrapped value. On error this is the fallback, never a zero
// surprise: it is always safe to use.
func (r Result[T]) Get() T {
	return r.value
}

// ErrMessage returns the error message, or "" for a success result
func (r Result[T]) ErrMessage() string {
	return r.err
}

// Report appends this result's error message to collector, if any, and returns
// the result unchanged. This enables non-fatal accumulation across many fields
// in one pass.
func (r Result[T]) Report(collector *[]string) Result[T] {
	if r.err != "" && collector != nil {
		*collector = append(*collector, r.err)
	}
	return r
}
