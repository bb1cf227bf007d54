package field

import (
	"fmt"

	"github.com/c360/confsync/element"
	"github.com/c360/confsync/validation"
)

// Bool is a validated boolean field. Both states are always valid; the
// wrapper exists for uniform handling by the serialization engine and the
// update manager.
type Bool struct {
	Validated[bool]
}

// NewBool creates a boolean field
func NewBool(def bool) *Bool {
	f := &Bool{}
	f.Validated = newValidated[bool](def, f, comparableEq[bool], identityCopy[bool])
	return f
}

// InstanceEntry returns a fresh field at the default, for use as a template
func (f *Bool) InstanceEntry() *Bool {
	return NewBool(f.def)
}

// Serialize implements validation.Serializer
func (f *Bool) Serialize(input bool) validation.Result[element.Element] {
	return validation.Success(element.NewBool(input))
}

// Deserialize implements validation.Deserializer
func (f *Bool) Deserialize(el element.Element, fieldName string) validation.Result[bool] {
	v, err := el.AsBool()
	if err != nil {
		return validation.Error(f.def, fmt.Sprintf("Error deserializing boolean [%s]: %s", fieldName, err.Error()))
	}
	return validation.Success(v)
}

// ValidateEntry implements validation.Validator
func (f *Bool) ValidateEntry(input bool, _ validation.Type) validation.Result[bool] {
	return validation.Success(input)
}

// CorrectEntry implements validation.Corrector
func (f *Bool) CorrectEntry(input bool, _ validation.Type) validation.Result[bool] {
	return validation.Success(input)
}

// String is a validated string field with an optional validator restricting
// its contents
type String struct {
	Validated[string]
	checker validation.Validator[string]
}

// NewString creates a string field accepting any content
func NewString(def string) *String {
	return NewCheckedString(def, nil)
}

// NewCheckedString creates a string field whose contents must pass checker.
// A nil checker accepts everything.
func NewCheckedString(def string, checker validation.Validator[string]) *String {
	f := &String{checker: checker}
	f.Validated = newValidated[string](def, f, comparableEq[string], identityCopy[string])
	return f
}

// InstanceEntry returns a fresh field at the default with the same checker,
// for use as a template
func (f *String) InstanceEntry() *String {
	return NewCheckedString(f.def, f.checker)
}

// Serialize implements validation.Serializer
func (f *String) Serialize(input string) validation.Result[element.Element] {
	return validation.Success(element.NewString(input))
}

// Deserialize implements validation.Deserializer
func (f *String) Deserialize(el element.Element, fieldName string) validation.Result[string] {
	v, err := el.AsString()
	if err != nil {
		return validation.Error(f.def, fmt.Sprintf("Error deserializing string [%s]: %s", fieldName, err.Error()))
	}
	return validation.Success(v)
}

// ValidateEntry implements validation.Validator
func (f *String) ValidateEntry(input string, t validation.Type) validation.Result[string] {
	if f.checker == nil {
		return validation.Success(input)
	}
	return f.checker.ValidateEntry(input, t)
}

// CorrectEntry validates input; there is no partial correction for strings,
// so a failed check falls back to the field default
func (f *String) CorrectEntry(input string, t validation.Type) validation.Result[string] {
	checked := f.ValidateEntry(input, t)
	if checked.IsError() {
		return validation.Error(f.def,
			fmt.Sprintf("String [%s] not valid, reset to [%s]: %s", input, f.def, checked.ErrMessage()))
	}
	return checked
}
