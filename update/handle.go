// Package update tracks pending local edits against a baseline, per root
// config instance. The Manager owns a registry mapping dotted field paths to
// field handles; fields themselves hold no reference back to the manager, and
// every history-producing mutation goes through Manager methods keyed by path.
package update

import "github.com/c360/confsync/element"

// SetOutcome describes the result of applying a value through a handle
type SetOutcome struct {
	// Old and New are display forms of the value before and after the set
	Old string
	New string
	// Err is the correction error message, "" if the input was valid
	Err string
	// Changed is false when the input equaled the current value and the set
	// was short-circuited
	Changed bool
}

// Handle is the type-erased surface of a registered validated field. It is
// what the Manager and the serialization engine hold; the typed field value
// lives behind it.
type Handle interface {
	// SerializeStored serializes the current value, reporting any problem to
	// errs and returning a null element on failure
	SerializeStored(errs *[]string) element.Element
	// ApplyElement deserializes el, applies weak correction, and stores the
	// result. Returns an error message, or "" on clean application. The
	// stored value is usable afterwards in every case.
	ApplyElement(el element.Element, fieldName string) string
	// PushState captures a snapshot of the current value for dirty tracking
	PushState()
	// PeekState reports whether the current value differs from the snapshot
	PeekState() bool
	// PopState clears the snapshot and reports whether the value had changed
	PopState() bool
	// Revert restores the snapshot value, failing if no snapshot is held
	Revert() error
	// Restore resets the value to the field default
	Restore()
	// IsValidEntry reports whether the untyped candidate would pass strong
	// validation, without modifying the field
	IsValidEntry(input any) bool
	// TrySet applies an untyped input with strong correction
	TrySet(input any) SetOutcome
	// ValueString returns the display form of the current value
	ValueString() string
	// DefaultString returns the display form of the default value
	DefaultString() string
	// IsDefault reports whether the current value equals the default
	IsDefault() bool
}
