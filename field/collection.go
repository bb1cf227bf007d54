package field

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/c360/confsync/element"
	"github.com/c360/confsync/validation"
)

// List is a validated list field. Every element passes through the element
// handler; elements failing validation are dropped and reported rather than
// failing the whole list.
type List[T comparable] struct {
	Validated[[]T]
	elem    validation.Handler[T]
	choices validation.ChoiceValidator[T]
}

// NewList creates a list field whose elements are handled by elem
func NewList[T comparable](def []T, elem validation.Handler[T]) *List[T] {
	return NewRestrictedList(def, elem, validation.AnyChoice[T]())
}

// NewRestrictedList creates a list field whose elements must additionally
// pass the choice restriction
func NewRestrictedList[T comparable](def []T, elem validation.Handler[T], choices validation.ChoiceValidator[T]) *List[T] {
	f := &List[T]{elem: elem, choices: choices}
	f.Validated = newValidated[[]T](def, f, slices.Equal[[]T], slices.Clone[[]T])
	return f
}

// InstanceEntry returns a fresh field at the default with the same element
// handler and restriction, for use as a template
func (f *List[T]) InstanceEntry() *List[T] {
	return NewRestrictedList(f.def, f.elem, f.choices)
}

// Serialize implements validation.Serializer
func (f *List[T]) Serialize(input []T) validation.Result[element.Element] {
	items := make([]element.Element, 0, len(input))
	var errs []string
	for _, v := range input {
		r := f.elem.Serialize(v)
		if r.IsError() {
			errs = append(errs, fmt.Sprintf("skipped list element [%v]: %s", v, r.ErrMessage()))
			continue
		}
		items = append(items, r.Get())
	}
	return validation.Predicated(element.NewArray(items...), len(errs) == 0, strings.Join(errs, "; "))
}

// Deserialize parses an array element, dropping and reporting elements that
// fail to parse. The surviving elements are still subject to correction.
func (f *List[T]) Deserialize(el element.Element, fieldName string) validation.Result[[]T] {
	arr, err := el.AsArray()
	if err != nil {
		return validation.Error(slices.Clone(f.def),
			fmt.Sprintf("Error deserializing list [%s]: %s", fieldName, err.Error()))
	}
	out := make([]T, 0, len(arr))
	var errs []string
	for i, item := range arr {
		r := f.elem.Deserialize(item, fmt.Sprintf("%s[%d]", fieldName, i))
		if r.IsError() {
			errs = append(errs, r.ErrMessage())
			continue
		}
		out = append(out, r.Get())
	}
	return validation.Predicated(out, len(errs) == 0,
		fmt.Sprintf("Dropped unreadable elements of list [%s]: %s", fieldName, strings.Join(errs, "; ")))
}

// ValidateEntry implements validation.Validator
func (f *List[T]) ValidateEntry(input []T, t validation.Type) validation.Result[[]T] {
	var errs []string
	for _, v := range input {
		if !f.choices.Test(v) {
			errs = append(errs, fmt.Sprintf("element [%v] not allowed", v))
			continue
		}
		if r := f.elem.ValidateEntry(v, t); r.IsError() {
			errs = append(errs, r.ErrMessage())
		}
	}
	return validation.Predicated(input, len(errs) == 0, strings.Join(errs, "; "))
}

// CorrectEntry corrects each element and drops elements that are not allowed
// or cannot be corrected
func (f *List[T]) CorrectEntry(input []T, t validation.Type) validation.Result[[]T] {
	out := make([]T, 0, len(input))
	var errs []string
	for _, v := range input {
		if !f.choices.Test(v) {
			errs = append(errs, fmt.Sprintf("dropped disallowed element [%v]", v))
			continue
		}
		r := f.elem.CorrectEntry(v, t)
		if r.IsError() {
			errs = append(errs, r.ErrMessage())
		}
		out = append(out, r.Get())
	}
	return validation.Predicated(out, len(errs) == 0, strings.Join(errs, "; "))
}

// Map is a validated map field. The element form is an array of [key, value]
// pair arrays rather than a native table, so non-string key types round-trip
// without string coercion. Pair order in the element form carries no meaning;
// serialization sorts pairs by key display form for stable output.
type Map[K, V comparable] struct {
	Validated[map[K]V]
	keyHandler validation.Handler[K]
	valHandler validation.Handler[V]
	keyChoices validation.ChoiceValidator[K]
}

// NewMap creates a map field whose keys and values are handled by the given
// handlers
func NewMap[K, V comparable](def map[K]V, keyHandler validation.Handler[K], valHandler validation.Handler[V]) *Map[K, V] {
	return NewRestrictedMap(def, keyHandler, valHandler, validation.AnyChoice[K]())
}

// NewRestrictedMap creates a map field whose keys must additionally pass the
// choice restriction
func NewRestrictedMap[K, V comparable](def map[K]V, keyHandler validation.Handler[K], valHandler validation.Handler[V], keyChoices validation.ChoiceValidator[K]) *Map[K, V] {
	f := &Map[K, V]{keyHandler: keyHandler, valHandler: valHandler, keyChoices: keyChoices}
	f.Validated = newValidated[map[K]V](cloneMap(def), f, maps.Equal[map[K]V, map[K]V], cloneMap[K, V])
	return f
}

func cloneMap[K, V comparable](m map[K]V) map[K]V {
	if m == nil {
		return make(map[K]V)
	}
	return maps.Clone(m)
}

// InstanceEntry returns a fresh field at the default with the same handlers
// and restriction, for use as a template
func (f *Map[K, V]) InstanceEntry() *Map[K, V] {
	return NewRestrictedMap(f.def, f.keyHandler, f.valHandler, f.keyChoices)
}

// Serialize emits the map as an array of two-element pair arrays, sorted by
// key display form. A pair whose key or value fails to serialize is dropped
// and reported.
func (f *Map[K, V]) Serialize(input map[K]V) validation.Result[element.Element] {
	keys := slices.Collect(maps.Keys(input))
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})
	pairs := make([]element.Element, 0, len(keys))
	var errs []string
	for _, k := range keys {
		kr := f.keyHandler.Serialize(k)
		vr := f.valHandler.Serialize(input[k])
		if kr.IsError() || vr.IsError() {
			errs = append(errs, fmt.Sprintf("skipped map entry [%v]: %s%s", k, kr.ErrMessage(), vr.ErrMessage()))
			continue
		}
		pairs = append(pairs, element.NewArray(kr.Get(), vr.Get()))
	}
	return validation.Predicated(element.NewArray(pairs...), len(errs) == 0, strings.Join(errs, "; "))
}

// Deserialize parses an array of pair arrays. Pairs that are malformed or
// whose key or value fails to parse are dropped and reported; surviving pairs
// populate the map regardless of their order in the element form.
func (f *Map[K, V]) Deserialize(el element.Element, fieldName string) validation.Result[map[K]V] {
	arr, err := el.AsArray()
	if err != nil {
		return validation.Error(cloneMap(f.def),
			fmt.Sprintf("Error deserializing map [%s]: %s", fieldName, err.Error()))
	}
	out := make(map[K]V, len(arr))
	var errs []string
	for i, item := range arr {
		pair, perr := item.AsArray()
		if perr != nil || len(pair) != 2 {
			errs = append(errs, fmt.Sprintf("entry %d of map [%s] is not a [key, value] pair", i, fieldName))
			continue
		}
		kr := f.keyHandler.Deserialize(pair[0], fmt.Sprintf("%s[%d].key", fieldName, i))
		vr := f.valHandler.Deserialize(pair[1], fmt.Sprintf("%s[%d].value", fieldName, i))
		if kr.IsError() || vr.IsError() {
			errs = append(errs, fmt.Sprintf("dropped map entry %d of [%s]: %s%s", i, fieldName, kr.ErrMessage(), vr.ErrMessage()))
			continue
		}
		out[kr.Get()] = vr.Get()
	}
	return validation.Predicated(out, len(errs) == 0, strings.Join(errs, "; "))
}

// ValidateEntry implements validation.Validator
func (f *Map[K, V]) ValidateEntry(input map[K]V, t validation.Type) validation.Result[map[K]V] {
	var errs []string
	for k, v := range input {
		if !f.keyChoices.Test(k) {
			errs = append(errs, fmt.Sprintf("key [%v] not allowed", k))
			continue
		}
		if r := f.keyHandler.ValidateEntry(k, t); r.IsError() {
			errs = append(errs, r.ErrMessage())
		}
		if r := f.valHandler.ValidateEntry(v, t); r.IsError() {
			errs = append(errs, r.ErrMessage())
		}
	}
	return validation.Predicated(input, len(errs) == 0, strings.Join(errs, "; "))
}

// CorrectEntry corrects each pair, dropping pairs whose key or value fails
// validation or the key restriction. Values are never substituted for a
// rejected pair: a bad pair is gone, not half-kept.
func (f *Map[K, V]) CorrectEntry(input map[K]V, t validation.Type) validation.Result[map[K]V] {
	out := make(map[K]V, len(input))
	var errs []string
	for k, v := range input {
		if !f.keyChoices.Test(k) {
			errs = append(errs, fmt.Sprintf("dropped disallowed key [%v]", k))
			continue
		}
		kr := f.keyHandler.CorrectEntry(k, t)
		vr := f.valHandler.CorrectEntry(v, t)
		if kr.IsError() || vr.IsError() {
			errs = append(errs, fmt.Sprintf("dropped map entry [%v]: %s%s", k, kr.ErrMessage(), vr.ErrMessage()))
			continue
		}
		out[kr.Get()] = vr.Get()
	}
	return validation.Predicated(out, len(errs) == 0, strings.Join(errs, "; "))
}
