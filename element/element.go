// Package element provides a tagged variant over the TOML value kinds used by
// the serialization engine. A config document is a tree of Elements: scalar
// literals, arrays, and tables. Tables preserve insertion order and carry
// per-key leading comments, which plain Go maps cannot represent.
package element

import (
	"fmt"

	"github.com/c360/confsync/errors"
)

// Kind identifies which variant an Element holds
type Kind int

// Element kinds
const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindArray
	KindTable
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Element is one node of a TOML value tree
type Element struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	arr   []Element
	table *Table
}

// Null returns the null element, written as an explicit empty marker for
// fields whose serialization failed
func Null() Element {
	return Element{kind: KindNull}
}

// NewBool wraps a bool literal
func NewBool(v bool) Element {
	return Element{kind: KindBool, b: v}
}

// NewInteger wraps an integer literal
func NewInteger(v int64) Element {
	return Element{kind: KindInteger, i: v}
}

// NewFloat wraps a float literal
func NewFloat(v float64) Element {
	return Element{kind: KindFloat, f: v}
}

// NewString wraps a string literal
func NewString(v string) Element {
	return Element{kind: KindString, s: v}
}

// NewArray wraps a sequence of elements
func NewArray(items ...Element) Element {
	return Element{kind: KindArray, arr: items}
}

// NewTableElement wraps a table
func NewTableElement(t *Table) Element {
	if t == nil {
		t = NewTable()
	}
	return Element{kind: KindTable, table: t}
}

// Kind returns the variant this element holds
func (e Element) Kind() Kind {
	return e.kind
}

// IsNull reports whether this element is the null marker
func (e Element) IsNull() bool {
	return e.kind == KindNull
}

// AsBool returns the bool value, or an error for any other kind
func (e Element) AsBool() (bool, error) {
	if e.kind != KindBool {
		return false, errors.WrapInvalid(
			fmt.Errorf("%w: have %s, want bool", errors.ErrWrongElement, e.kind),
			"Element", "AsBool", "kind check")
	}
	return e.b, nil
}

// AsInteger returns the integer value. Floats with an integral value are
// accepted, since hand-edited files often write "5.0" for an int field.
func (e Element) AsInteger() (int64, error) {
	switch e.kind {
	case KindInteger:
		return e.i, nil
	case KindFloat:
		if e.f == float64(int64(e.f)) {
			return int64(e.f), nil
		}
	}
	return 0, errors.WrapInvalid(
		fmt.Errorf("%w: have %s, want integer", errors.ErrWrongElement, e.kind),
		"Element", "AsInteger", "kind check")
}

// AsFloat returns the float value; integers are widened
func (e Element) AsFloat() (float64, error) {
	switch e.kind {
	case KindFloat:
		return e.f, nil
	case KindInteger:
		return float64(e.i), nil
	}
	return 0, errors.WrapInvalid(
		fmt.Errorf("%w: have %s, want float", errors.ErrWrongElement, e.kind),
		"Element", "AsFloat", "kind check")
}

// AsString returns the string value, or an error for any other kind
func (e Element) AsString() (string, error) {
	if e.kind != KindString {
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: have %s, want string", errors.ErrWrongElement, e.kind),
			"Element", "AsString", "kind check")
	}
	return e.s, nil
}

// AsArray returns the item slice, or an error for any other kind
func (e Element) AsArray() ([]Element, error) {
	if e.kind != KindArray {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: have %s, want array", errors.ErrWrongElement, e.kind),
			"Element", "AsArray", "kind check")
	}
	return e.arr, nil
}

// AsTable returns the table, or an error for any other kind
func (e Element) AsTable() (*Table, error) {
	if e.kind != KindTable {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: have %s, want table", errors.ErrWrongElement, e.kind),
			"Element", "AsTable", "kind check")
	}
	return e.table, nil
}

// Table is an ordered string-keyed table of elements with optional per-key
// leading comment lines
type Table struct {
	keys     []string
	values   map[string]Element
	comments map[string][]string
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{
		values:   make(map[string]Element),
		comments: make(map[string][]string),
	}
}

// Set stores el under key, appending the key to the order on first insert
func (t *Table) Set(key string, el Element) {
	if _, exists := t.values[key]; !exists {
		t.keys = append(t.keys, key)
	}
	t.values[key] = el
}

// SetCommented stores el under key with leading comment lines
func (t *Table) SetCommented(key string, el Element, comments ...string) {
	t.Set(key, el)
	if len(comments) > 0 {
		t.comments[key] = comments
	}
}

// Get returns the element stored under key
func (t *Table) Get(key string) (Element, bool) {
	el, ok := t.values[key]
	return el, ok
}

// Comments returns the leading comment lines attached to key
func (t *Table) Comments(key string) []string {
	return t.comments[key]
}

// Keys returns the key order. The returned slice must not be mutated.
func (t *Table) Keys() []string {
	return t.keys
}

// Len returns the number of keys in the table
func (t *Table) Len() int {
	return len(t.keys)
}
