package field

import (
	"fmt"
	"slices"

	"github.com/c360/confsync/element"
	"github.com/c360/confsync/validation"
)

// Choice is a validated field whose value must be one of a fixed option set.
// The element form of a choice is the element form of its value, so the
// persisted file shows a plain literal, not an index.
type Choice[T comparable] struct {
	Validated[T]
	options []T
	enc     func(T) element.Element
	dec     func(element.Element) (T, error)
}

// NewChoice creates a choice field over options, encoding values with enc and
// decoding with dec. The default must be one of the options; a default
// outside the set is a programming error and panics at construction.
func NewChoice[T comparable](def T, options []T, enc func(T) element.Element, dec func(element.Element) (T, error)) *Choice[T] {
	if !slices.Contains(options, def) {
		panic(fmt.Sprintf("field: choice default [%v] not among options %v", def, options))
	}
	f := &Choice[T]{options: slices.Clone(options), enc: enc, dec: dec}
	f.Validated = newValidated[T](def, f, comparableEq[T], identityCopy[T])
	return f
}

// NewStringChoice creates a choice field over string options
func NewStringChoice(def string, options ...string) *Choice[string] {
	return NewChoice(def, options, element.NewString, func(el element.Element) (string, error) {
		return el.AsString()
	})
}

// NewIntChoice creates a choice field over integer options
func NewIntChoice(def int64, options ...int64) *Choice[int64] {
	return NewChoice(def, options, element.NewInteger, func(el element.Element) (int64, error) {
		return el.AsInteger()
	})
}

// Options returns the permitted values in declaration order
func (f *Choice[T]) Options() []T {
	return slices.Clone(f.options)
}

// InstanceEntry returns a fresh field at the default with the same option
// set, for use as a template
func (f *Choice[T]) InstanceEntry() *Choice[T] {
	return NewChoice(f.def, f.options, f.enc, f.dec)
}

// Serialize implements validation.Serializer
func (f *Choice[T]) Serialize(input T) validation.Result[element.Element] {
	return validation.Success(f.enc(input))
}

// Deserialize implements validation.Deserializer
func (f *Choice[T]) Deserialize(el element.Element, fieldName string) validation.Result[T] {
	v, err := f.dec(el)
	if err != nil {
		return validation.Error(f.def, fmt.Sprintf("Error deserializing choice [%s]: %s", fieldName, err.Error()))
	}
	return validation.Success(v)
}

// ValidateEntry implements validation.Validator
func (f *Choice[T]) ValidateEntry(input T, _ validation.Type) validation.Result[T] {
	return validation.Predicated(input, slices.Contains(f.options, input),
		fmt.Sprintf("Value [%v] not among options %v", input, f.options))
}

// CorrectEntry validates input; an unknown value cannot be coerced toward
// the option set, so failures fall back to the field default
func (f *Choice[T]) CorrectEntry(input T, t validation.Type) validation.Result[T] {
	checked := f.ValidateEntry(input, t)
	if checked.IsError() {
		return validation.Error(f.def,
			fmt.Sprintf("Value [%v] not among options %v, reset to [%v]", input, f.options, f.def))
	}
	return checked
}
