package validation

import "slices"

// ChoiceValidator restricts values to an allow list, a deny list, or both.
// It is used by list and map fields to define which new entries a user may add.
type ChoiceValidator[T comparable] struct {
	disallowed []T
	allowed    []T
}

// AnyChoice permits every value
func AnyChoice[T comparable]() ChoiceValidator[T] {
	return ChoiceValidator[T]{}
}

// AllowedChoices permits only the listed values
func AllowedChoices[T comparable](allowed ...T) ChoiceValidator[T] {
	return ChoiceValidator[T]{allowed: allowed}
}

// DisallowedChoices permits everything except the listed values
func DisallowedChoices[T comparable](disallowed ...T) ChoiceValidator[T] {
	return ChoiceValidator[T]{disallowed: disallowed}
}

// Test reports whether input passes the allow/deny predicate
func (c ChoiceValidator[T]) Test(input T) bool {
	if c.disallowed != nil && slices.Contains(c.disallowed, input) {
		return false
	}
	if c.allowed != nil {
		return slices.Contains(c.allowed, input)
	}
	return true
}

// ValidateEntry implements Validator
func (c ChoiceValidator[T]) ValidateEntry(input T, _ Type) Result[T] {
	return Predicated(input, c.Test(input), "Value not allowed")
}
