package field

import (
	"fmt"
	"math"

	"github.com/c360/confsync/element"
	"github.com/c360/confsync/validation"
)

// Int is a validated integer field with an inclusive min/max restriction
type Int struct {
	Validated[int64]
	min int64
	max int64
}

// NewInt creates an integer field restricted to [min, max]
func NewInt(def, min, max int64) *Int {
	f := &Int{min: min, max: max}
	f.Validated = newValidated[int64](def, f, comparableEq[int64], identityCopy[int64])
	return f
}

// NewUnboundedInt creates an integer field with no range restriction
func NewUnboundedInt(def int64) *Int {
	return NewInt(def, math.MinInt64, math.MaxInt64)
}

// Min returns the inclusive lower bound
func (f *Int) Min() int64 { return f.min }

// Max returns the inclusive upper bound
func (f *Int) Max() int64 { return f.max }

// InstanceEntry returns a fresh field at the default with the same bounds,
// for use as a template
func (f *Int) InstanceEntry() *Int {
	return NewInt(f.def, f.min, f.max)
}

// Serialize implements validation.Serializer
func (f *Int) Serialize(input int64) validation.Result[element.Element] {
	return validation.Success(element.NewInteger(input))
}

// Deserialize implements validation.Deserializer
func (f *Int) Deserialize(el element.Element, fieldName string) validation.Result[int64] {
	v, err := el.AsInteger()
	if err != nil {
		return validation.Error(f.def, fmt.Sprintf("Error deserializing int [%s]: %s", fieldName, err.Error()))
	}
	return validation.Success(v)
}

// ValidateEntry implements validation.Validator
func (f *Int) ValidateEntry(input int64, _ validation.Type) validation.Result[int64] {
	return validation.Predicated(input, input >= f.min && input <= f.max,
		fmt.Sprintf("Value [%d] outside of range [%d, %d]", input, f.min, f.max))
}

// CorrectEntry clamps input into range. The returned value is always in
// range; out-of-range input is additionally reported as an error.
func (f *Int) CorrectEntry(input int64, _ validation.Type) validation.Result[int64] {
	clamped := input
	if clamped < f.min {
		clamped = f.min
	}
	if clamped > f.max {
		clamped = f.max
	}
	return validation.Predicated(clamped, clamped == input,
		fmt.Sprintf("Value [%d] outside of range [%d, %d], clamped to [%d]", input, f.min, f.max, clamped))
}

// Float is a validated float field with an inclusive min/max restriction
type Float struct {
	Validated[float64]
	min float64
	max float64
}

// NewFloat creates a float field restricted to [min, max]
func NewFloat(def, min, max float64) *Float {
	f := &Float{min: min, max: max}
	f.Validated = newValidated[float64](def, f, comparableEq[float64], identityCopy[float64])
	return f
}

// NewUnboundedFloat creates a float field with no range restriction
func NewUnboundedFloat(def float64) *Float {
	return NewFloat(def, -math.MaxFloat64, math.MaxFloat64)
}

// Min returns the inclusive lower bound
func (f *Float) Min() float64 { return f.min }

// Max returns the inclusive upper bound
func (f *Float) Max() float64 { return f.max }

// InstanceEntry returns a fresh field at the default with the same bounds,
// for use as a template
func (f *Float) InstanceEntry() *Float {
	return NewFloat(f.def, f.min, f.max)
}

// Serialize implements validation.Serializer
func (f *Float) Serialize(input float64) validation.Result[element.Element] {
	return validation.Success(element.NewFloat(input))
}

// Deserialize implements validation.Deserializer
func (f *Float) Deserialize(el element.Element, fieldName string) validation.Result[float64] {
	v, err := el.AsFloat()
	if err != nil {
		return validation.Error(f.def, fmt.Sprintf("Error deserializing float [%s]: %s", fieldName, err.Error()))
	}
	return validation.Success(v)
}

// ValidateEntry implements validation.Validator
func (f *Float) ValidateEntry(input float64, _ validation.Type) validation.Result[float64] {
	return validation.Predicated(input, input >= f.min && input <= f.max,
		fmt.Sprintf("Value [%v] outside of range [%v, %v]", input, f.min, f.max))
}

// CorrectEntry clamps input into range, reporting out-of-range input
func (f *Float) CorrectEntry(input float64, _ validation.Type) validation.Result[float64] {
	clamped := input
	if clamped < f.min {
		clamped = f.min
	}
	if clamped > f.max {
		clamped = f.max
	}
	if math.IsNaN(clamped) {
		return validation.Error(f.def, fmt.Sprintf("Value [%v] is not a number, reset to [%v]", input, f.def))
	}
	return validation.Predicated(clamped, clamped == input,
		fmt.Sprintf("Value [%v] outside of range [%v, %v], clamped to [%v]", input, f.min, f.max, clamped))
}
