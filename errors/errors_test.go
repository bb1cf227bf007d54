package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"malformed config", ErrMalformedConfig, true},
		{"malformed update", ErrMalformedUpdate, true},
		{"field validation", ErrFieldValidation, true},
		{"wrong element", ErrWrongElement, true},
		{"permission denied", ErrPermissionDenied, false},
		{"wrapped malformed", fmt.Errorf("outer: %w", ErrMalformedConfig), true},
		{"classified invalid", WrapInvalid(errors.New("bad"), "Comp", "Method", "action"), true},
		{"classified transient", WrapTransient(errors.New("later"), "Comp", "Method", "action"), false},
		{"plain error", errors.New("something else"), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsInvalid(test.err); got != test.expected {
				t.Errorf("IsInvalid(%v) = %v, expected %v", test.err, got, test.expected)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	if IsFatal(nil) {
		t.Error("nil should not be fatal")
	}
	if !IsFatal(WrapFatal(errors.New("boom"), "Comp", "Method", "action")) {
		t.Error("WrapFatal result should be fatal")
	}
	if IsFatal(WrapInvalid(errors.New("bad"), "Comp", "Method", "action")) {
		t.Error("WrapInvalid result should not be fatal")
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("disk unavailable")
	wrapped := Wrap(base, "Serializer", "Save", "write file")

	if wrapped == nil {
		t.Fatal("expected non-nil wrapped error")
	}
	expected := "Serializer.Save: write file failed: disk unavailable"
	if wrapped.Error() != expected {
		t.Errorf("expected %q, got %q", expected, wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should unwrap to base")
	}
	if Wrap(nil, "A", "B", "C") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestClassifiedError_Unwrap(t *testing.T) {
	base := ErrPermissionDenied
	wrapped := WrapInvalid(base, "Syncer", "ReceiveUpdate", "permission check")

	var ce *ClassifiedError
	if !errors.As(wrapped, &ce) {
		t.Fatal("expected a ClassifiedError")
	}
	if ce.Component != "Syncer" || ce.Operation != "ReceiveUpdate" {
		t.Errorf("unexpected context: %s.%s", ce.Component, ce.Operation)
	}
	if !errors.Is(wrapped, base) {
		t.Error("classified error should unwrap to base")
	}
	if !strings.Contains(wrapped.Error(), "permission check failed") {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
}

func TestWrapHelpers_NilPassthrough(t *testing.T) {
	if WrapTransient(nil, "A", "B", "C") != nil {
		t.Error("WrapTransient(nil) should return nil")
	}
	if WrapFatal(nil, "A", "B", "C") != nil {
		t.Error("WrapFatal(nil) should return nil")
	}
	if WrapInvalid(nil, "A", "B", "C") != nil {
		t.Error("WrapInvalid(nil) should return nil")
	}
}
