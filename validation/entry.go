package validation

import "github.com/c360/confsync/element"

// Serializer converts a value to its element form
type Serializer[T any] interface {
	// Serialize converts input to an element. On failure the result carries a
	// null element and an error message.
	Serialize(input T) Result[element.Element]
}

// Deserializer reconstructs a value from its element form
type Deserializer[T any] interface {
	// Deserialize parses el without mutating any field state. fieldName is
	// used for error reporting only. Failure paths return an error-tagged
	// result carrying a safe fallback value; Deserialize never panics.
	Deserialize(el element.Element, fieldName string) Result[T]
}

// Validator checks a candidate value against a field's constraints
type Validator[T any] interface {
	// ValidateEntry reports constraint violations without modifying input
	ValidateEntry(input T, t Type) Result[T]
}

// Corrector coerces a candidate value into a field's constraints
type Corrector[T any] interface {
	// CorrectEntry returns a value satisfying the field's constraints. Under
	// Strong the returned value is always in range; under Weak out-of-range
	// input is still corrected but the violation is reported as an error.
	CorrectEntry(input T, t Type) Result[T]
}

// Handler is the full capability contract a config value wrapper implements:
// serialize, deserialize, validate, and correct.
type Handler[T any] interface {
	Serializer[T]
	Deserializer[T]
	Validator[T]
	Corrector[T]
}

// FuncValidator adapts a plain function to the Validator interface
type FuncValidator[T any] func(input T, t Type) Result[T]

// ValidateEntry implements Validator
func (f FuncValidator[T]) ValidateEntry(input T, t Type) Result[T] {
	return f(input, t)
}
