package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/confsync/element"
	"github.com/c360/confsync/validation"
)

// roundTrip asserts the serialize/deserialize law for a handler and value
func roundTrip[T any](t *testing.T, h validation.Handler[T], v T) {
	t.Helper()
	ser := h.Serialize(v)
	require.True(t, ser.IsValid(), "serialize failed: %s", ser.ErrMessage())
	deser := h.Deserialize(ser.Get(), "roundtrip")
	require.True(t, deser.IsValid(), "deserialize failed: %s", deser.ErrMessage())
	assert.Equal(t, v, deser.Get())
}

func TestRoundTripInt(t *testing.T) {
	roundTrip[int64](t, NewInt(5, -100, 100), 42)
}

func TestRoundTripFloat(t *testing.T) {
	roundTrip[float64](t, NewFloat(1.0, 0, 100), 2.75)
}

func TestRoundTripBool(t *testing.T) {
	roundTrip[bool](t, NewBool(false), true)
}

func TestRoundTripString(t *testing.T) {
	roundTrip[string](t, NewString(""), "hello world")
}

func TestRoundTripChoice(t *testing.T) {
	roundTrip[string](t, NewStringChoice("normal", "easy", "normal", "hard"), "hard")
}

func TestRoundTripList(t *testing.T) {
	roundTrip[[]string](t, NewList[string](nil, NewString("")), []string{"a", "b", "c"})
}

func TestRoundTripMap(t *testing.T) {
	roundTrip[map[string]int64](t,
		NewMap(map[string]int64{}, NewString(""), NewInt(0, 0, 100)),
		map[string]int64{"red": 5, "blue": 7})
}

func TestIntCorrectEntryClamps(t *testing.T) {
	f := NewInt(5, 0, 10)
	tests := []struct {
		name    string
		input   int64
		want    int64
		wantErr bool
	}{
		{"in range", 7, 7, false},
		{"above max", 99, 10, true},
		{"below min", -4, 0, true},
		{"at bound", 10, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := f.CorrectEntry(tt.input, validation.Strong)
			assert.Equal(t, tt.want, r.Get())
			assert.Equal(t, tt.wantErr, r.IsError())
		})
	}
}

func TestIntDeserializeWrongKind(t *testing.T) {
	f := NewInt(5, 0, 10)
	r := f.Deserialize(element.NewString("nope"), "intField")
	assert.True(t, r.IsError())
	assert.Equal(t, int64(5), r.Get(), "fallback is the default")
}

func TestFloatCorrectEntryNaN(t *testing.T) {
	f := NewFloat(1.0, 0, 10)
	r := f.CorrectEntry(nan(), validation.Strong)
	assert.True(t, r.IsError())
	assert.Equal(t, 1.0, r.Get())
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}

func TestStringWithChecker(t *testing.T) {
	f := NewCheckedString("a", validation.AllowedChoices("a", "b"))
	assert.True(t, f.ValidateEntry("b", validation.Strong).IsValid())
	assert.True(t, f.ValidateEntry("z", validation.Strong).IsError())

	r := f.CorrectEntry("z", validation.Strong)
	assert.True(t, r.IsError())
	assert.Equal(t, "a", r.Get(), "uncorrectable string falls back to default")
}

func TestChoiceRejectsUnknown(t *testing.T) {
	f := NewStringChoice("normal", "easy", "normal", "hard")
	r := f.CorrectEntry("impossible", validation.Strong)
	assert.True(t, r.IsError())
	assert.Equal(t, "normal", r.Get())
}

func TestChoiceDefaultMustBeOption(t *testing.T) {
	assert.Panics(t, func() {
		NewStringChoice("zzz", "a", "b")
	})
}

func TestIntChoice(t *testing.T) {
	f := NewIntChoice(10, 10, 20, 30)
	roundTrip[int64](t, f, 20)
	assert.True(t, f.ValidateEntry(15, validation.Strong).IsError())
}

func TestListDropsBadElements(t *testing.T) {
	f := NewList[int64](nil, NewInt(0, 0, 100))
	arr := element.NewArray(
		element.NewInteger(1),
		element.NewString("not a number"),
		element.NewInteger(3),
	)
	r := f.Deserialize(arr, "nums")
	assert.True(t, r.IsError(), "dropped element is reported")
	assert.Equal(t, []int64{1, 3}, r.Get(), "good elements survive")
}

func TestListCorrectDropsDisallowed(t *testing.T) {
	f := NewRestrictedList([]string{"a"}, NewString(""), validation.AllowedChoices("a", "b"))
	r := f.CorrectEntry([]string{"a", "z", "b"}, validation.Strong)
	assert.True(t, r.IsError())
	assert.Equal(t, []string{"a", "b"}, r.Get())
}

func TestMapSerializesAsSortedPairArray(t *testing.T) {
	f := NewMap(map[string]int64{}, NewString(""), NewInt(0, 0, 100))
	ser := f.Serialize(map[string]int64{"zeta": 1, "alpha": 2})
	require.True(t, ser.IsValid())
	pairs, err := ser.Get().AsArray()
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	first, err := pairs[0].AsArray()
	require.NoError(t, err)
	require.Len(t, first, 2)
	k, err := first[0].AsString()
	require.NoError(t, err)
	assert.Equal(t, "alpha", k, "pairs sorted by key display form")
}

func TestMapDeserializeOrderIndependent(t *testing.T) {
	f := NewMap(map[string]int64{}, NewString(""), NewInt(0, 0, 100))
	forward := element.NewArray(
		element.NewArray(element.NewString("a"), element.NewInteger(1)),
		element.NewArray(element.NewString("b"), element.NewInteger(2)),
	)
	backward := element.NewArray(
		element.NewArray(element.NewString("b"), element.NewInteger(2)),
		element.NewArray(element.NewString("a"), element.NewInteger(1)),
	)
	r1 := f.Deserialize(forward, "m")
	r2 := f.Deserialize(backward, "m")
	require.True(t, r1.IsValid())
	require.True(t, r2.IsValid())
	assert.Equal(t, r1.Get(), r2.Get())
}

func TestMapDropsRejectedPairs(t *testing.T) {
	f := NewMap(map[string]int64{}, NewString(""), NewInt(0, 0, 100))
	arr := element.NewArray(
		element.NewArray(element.NewString("good"), element.NewInteger(1)),
		element.NewArray(element.NewInteger(99), element.NewInteger(2)),      // bad key kind
		element.NewArray(element.NewString("short")),                         // malformed pair
		element.NewArray(element.NewString("badval"), element.NewBool(true)), // bad value kind
	)
	r := f.Deserialize(arr, "m")
	assert.True(t, r.IsError())
	assert.Equal(t, map[string]int64{"good": 1}, r.Get())
}

func TestInstanceEntryIndependentCopy(t *testing.T) {
	base := NewInt(5, 0, 10)
	base.Accept(7)

	inst := base.InstanceEntry()
	assert.Equal(t, int64(5), inst.Get(), "instance starts at the default, not the current value")

	r := inst.CorrectEntry(99, validation.Strong)
	assert.Equal(t, int64(10), r.Get(), "bounds carry over to the instance")

	inst.Accept(3)
	assert.Equal(t, int64(7), base.Get(), "mutating the instance leaves the source untouched")
}

func TestInstanceEntryPreservesConstraints(t *testing.T) {
	choice := NewStringChoice("normal", "easy", "normal", "hard").InstanceEntry()
	assert.Equal(t, []string{"easy", "normal", "hard"}, choice.Options())
	assert.True(t, choice.ValidateEntry("impossible", validation.Strong).IsError())

	str := NewCheckedString("a", validation.AllowedChoices("a", "b")).InstanceEntry()
	assert.True(t, str.ValidateEntry("z", validation.Strong).IsError())

	list := NewRestrictedList([]string{"a"}, NewString(""), validation.AllowedChoices("a", "b")).InstanceEntry()
	lr := list.CorrectEntry([]string{"a", "z"}, validation.Strong)
	assert.Equal(t, []string{"a"}, lr.Get())

	m := NewMap(map[string]int64{"k": 1}, NewString(""), NewInt(0, 0, 100)).InstanceEntry()
	assert.Equal(t, map[string]int64{"k": 1}, m.Get())

	b := NewBool(true).InstanceEntry()
	assert.True(t, b.Get())

	f := NewFloat(1.0, 0, 10).InstanceEntry()
	fr := f.CorrectEntry(-3.5, validation.Strong)
	assert.Equal(t, 0.0, fr.Get())
}

func TestIsValidEntry(t *testing.T) {
	f := NewInt(5, 0, 10)
	tests := []struct {
		name  string
		input any
		want  bool
	}{
		{"in range", int64(7), true},
		{"out of range", int64(99), false},
		{"wrong type", "seven", false},
		{"wrong int width", 7, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsValidEntry(tt.input))
		})
	}
}

func TestMapCorrectDropsPairOnEitherError(t *testing.T) {
	f := NewRestrictedMap(map[string]int64{}, NewCheckedString("k", validation.AllowedChoices("k", "good")),
		NewInt(0, 0, 100), validation.AnyChoice[string]())
	r := f.CorrectEntry(map[string]int64{"good": 5, "rejected": 7}, validation.Strong)
	assert.True(t, r.IsError())
	assert.Equal(t, map[string]int64{"good": 5}, r.Get(), "a bad pair is gone, not half-kept")
}
