// Package field provides validated wrappers around single config values.
//
// A validated field holds a current value, a default, and an optional pushed
// snapshot bracketing an edit session. Fields are usable standalone as
// validators or codecs; binding to a dotted path and an update manager
// happens later, at registration time (two-phase init). Fields hold no
// back-reference to their manager: all history-producing mutation goes
// through the manager, keyed by path.
//
// Serialization of a validated field is indistinguishable from its wrapped
// value; the validation lives only in code, not in the persisted form.
package field

import (
	"fmt"

	"github.com/c360/confsync/element"
	"github.com/c360/confsync/errors"
	"github.com/c360/confsync/update"
	"github.com/c360/confsync/validation"
)

// Validated is the base stateful wrapper around one config value. Concrete
// field types embed it and supply the validation.Handler implementation.
type Validated[T any] struct {
	stored   T
	def      T
	pushed   *T
	handler  validation.Handler[T]
	eq       func(a, b T) bool
	cp       func(T) T
	listener func(T)
}

// newValidated wires the base with its concrete handler, equality, and copy
// behavior. handler is the embedding type itself.
func newValidated[T any](def T, handler validation.Handler[T], eq func(a, b T) bool, cp func(T) T) Validated[T] {
	return Validated[T]{
		stored:  cp(def),
		def:     cp(def),
		handler: handler,
		eq:      eq,
		cp:      cp,
	}
}

// comparableEq is the equality function for directly comparable value types
func comparableEq[T comparable](a, b T) bool {
	return a == b
}

// identityCopy is the copy function for value types that need no deep copy
func identityCopy[T any](v T) T {
	return v
}

// Get supplies the wrapped value
func (v *Validated[T]) Get() T {
	return v.stored
}

// GetDefault returns the field's default value
func (v *Validated[T]) GetDefault() T {
	return v.cp(v.def)
}

// SetListener attaches a callback invoked on every write to the field. The
// listener should not further mutate the field.
func (v *Validated[T]) SetListener(listener func(T)) {
	v.listener = listener
}

// set stores input and notifies the listener. No validation.
func (v *Validated[T]) set(input T) {
	v.stored = input
	if v.listener != nil {
		v.listener(input)
	}
}

// CopyValue returns a copy of the stored value, deep for collection types
func (v *Validated[T]) CopyValue() T {
	return v.cp(v.stored)
}

// IsDefault reports whether the current value equals the default
func (v *Validated[T]) IsDefault() bool {
	return v.eq(v.stored, v.def)
}

// PushState captures a snapshot of the current value, opening an edit session
func (v *Validated[T]) PushState() {
	c := v.cp(v.stored)
	v.pushed = &c
}

// PeekState reports whether the current value differs from the snapshot. With
// no snapshot held the field is clean and PeekState reports false.
func (v *Validated[T]) PeekState() bool {
	if v.pushed == nil {
		return false
	}
	return !v.eq(*v.pushed, v.stored)
}

// PopState clears the snapshot and reports whether the value had changed
// since PushState
func (v *Validated[T]) PopState() bool {
	if v.pushed == nil {
		return false
	}
	changed := !v.eq(*v.pushed, v.stored)
	v.pushed = nil
	return changed
}

// Revert restores the stored value to the pushed snapshot
func (v *Validated[T]) Revert() error {
	if v.pushed == nil {
		return errors.WrapInvalid(errors.ErrNoPushedState, "ValidatedField", "Revert", "snapshot check")
	}
	v.set(*v.pushed)
	return nil
}

// Restore resets the stored value to the default
func (v *Validated[T]) Restore() {
	v.set(v.cp(v.def))
}

// ValidateAndSet corrects input weakly and unconditionally stores the
// corrected result, even on error. Best effort, never refuses.
func (v *Validated[T]) ValidateAndSet(input T) validation.Result[T] {
	corrected := v.handler.CorrectEntry(input, validation.Weak)
	v.set(corrected.Get())
	if corrected.IsError() {
		return validation.Error(corrected.Get(),
			fmt.Sprintf("Error validating and setting input [%v]. Corrected to [%v]: %s",
				input, corrected.Get(), corrected.ErrMessage()))
	}
	return validation.Success(v.stored)
}

// Accept is the authoritative in-session setter: it no-ops when input equals
// the current value, otherwise applies strong correction and stores the
// result. The returned outcome carries old and new display forms for the
// caller's change history.
func (v *Validated[T]) Accept(input T) update.SetOutcome {
	if v.eq(input, v.stored) {
		return update.SetOutcome{Changed: false, Old: fmt.Sprint(v.stored), New: fmt.Sprint(v.stored)}
	}
	old := fmt.Sprint(v.stored)
	corrected := v.handler.CorrectEntry(input, validation.Strong)
	v.set(corrected.Get())
	return update.SetOutcome{
		Old:     old,
		New:     fmt.Sprint(v.stored),
		Err:     corrected.ErrMessage(),
		Changed: true,
	}
}

// IsValidEntry reports whether the untyped candidate would pass strong
// validation for this field. Inputs of the wrong type are never valid.
func (v *Validated[T]) IsValidEntry(input any) bool {
	typed, ok := input.(T)
	if !ok {
		return false
	}
	return v.handler.ValidateEntry(typed, validation.Strong).IsValid()
}

// TrySet applies an untyped input with strong correction. Inputs of the
// wrong type leave the field untouched.
func (v *Validated[T]) TrySet(input any) update.SetOutcome {
	typed, ok := input.(T)
	if !ok {
		return update.SetOutcome{
			Old: fmt.Sprint(v.stored),
			New: fmt.Sprint(v.stored),
			Err: fmt.Sprintf("input of type %T not applicable", input),
		}
	}
	return v.Accept(typed)
}

// DeserializeEntry parses el, applies weak correction, and stores the result.
// Failure paths keep the field usable: a parse failure leaves the prior value
// and reports it, a correction failure stores the corrected value and reports
// it.
func (v *Validated[T]) DeserializeEntry(el element.Element, fieldName string) validation.Result[T] {
	parsed := v.handler.Deserialize(el, fieldName)
	if parsed.IsError() {
		return validation.Error(v.stored,
			fmt.Sprintf("Error deserializing config entry [%s], using value [%v]: %s",
				fieldName, parsed.Get(), parsed.ErrMessage()))
	}
	corrected := v.handler.CorrectEntry(parsed.Get(), validation.Weak)
	v.set(corrected.Get())
	if corrected.IsError() {
		return validation.Error(v.stored,
			fmt.Sprintf("Config entry [%s] had validation errors, corrected to [%v]: %s",
				fieldName, corrected.Get(), corrected.ErrMessage()))
	}
	return validation.Success(v.stored)
}

// ApplyElement implements update.Handle over DeserializeEntry
func (v *Validated[T]) ApplyElement(el element.Element, fieldName string) string {
	return v.DeserializeEntry(el, fieldName).ErrMessage()
}

// SerializeStored serializes the current value, reporting any problem to errs
func (v *Validated[T]) SerializeStored(errs *[]string) element.Element {
	return v.handler.Serialize(v.stored).Report(errs).Get()
}

// SerializeValue serializes an arbitrary input through this field's handler,
// for use as a standalone codec
func (v *Validated[T]) SerializeValue(input T, errs *[]string) element.Element {
	return v.handler.Serialize(input).Report(errs).Get()
}

// ValueString returns the display form of the current value
func (v *Validated[T]) ValueString() string {
	return fmt.Sprint(v.stored)
}

// DefaultString returns the display form of the default value
func (v *Validated[T]) DefaultString() string {
	return fmt.Sprint(v.def)
}
