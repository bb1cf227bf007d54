package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type innerFixture struct {
	depth int
}

func (f *innerFixture) SchemaFields() []Descriptor {
	return []Descriptor{
		{Name: "depth", Get: func() any { return f.depth }},
	}
}

type rootFixture struct {
	name   string
	secret string
	inner  *innerFixture
}

func (f *rootFixture) SchemaFields() []Descriptor {
	return []Descriptor{
		{Name: "name", Get: func() any { return f.name }},
		{Name: "secret", Get: func() any { return f.secret }, Meta: FieldMeta{NonSync: true}},
		{Name: "inner", Get: func() any { return f.inner }},
	}
}

func newRootFixture() *rootFixture {
	return &rootFixture{name: "n", secret: "s", inner: &innerFixture{depth: 3}}
}

func TestWalkVisitsDeclarationOrder(t *testing.T) {
	var paths []string
	Walk(newRootFixture(), "root", IgnoreNonSync, func(_ Walkable, _, path string, _ any, _ Descriptor) {
		paths = append(paths, path)
	})
	assert.Equal(t, []string{"root.name", "root.secret", "root.inner", "root.inner.depth"}, paths)
}

func TestWalkNonSyncFlag(t *testing.T) {
	count := func(flags Flags) int {
		n := 0
		Walk(newRootFixture(), "root", flags, func(_ Walkable, _, _ string, _ any, _ Descriptor) {
			n++
		})
		return n
	}
	// one field excluded when NonSync is honored
	assert.Equal(t, 4, count(IgnoreNonSync))
	assert.Equal(t, 3, count(CheckNonSync))
}

func TestWalkVisitorSeesParentAndPrefix(t *testing.T) {
	root := newRootFixture()
	Walk(root, "root", CheckNonSync, func(parent Walkable, oldPrefix, path string, value any, desc Descriptor) {
		if path == "root.inner.depth" {
			assert.Equal(t, root.inner, parent)
			assert.Equal(t, "root.inner", oldPrefix)
			assert.Equal(t, 3, value)
			assert.Equal(t, "depth", desc.Name)
		}
	})
}

type panickyFixture struct{}

func (f *panickyFixture) SchemaFields() []Descriptor {
	return []Descriptor{
		{Name: "bad", Get: func() any { panic("getter exploded") }},
		{Name: "good", Get: func() any { return 1 }},
	}
}

func TestWalkSurvivesPanickingField(t *testing.T) {
	var paths []string
	Walk(&panickyFixture{}, "p", CheckNonSync, func(_ Walkable, _, path string, _ any, _ Descriptor) {
		paths = append(paths, path)
	})
	assert.Equal(t, []string{"p.good"}, paths, "siblings of a failing field still walk")
}

func TestDrillResolvesLeaf(t *testing.T) {
	root := newRootFixture()
	visits := 0
	Drill(root, "inner.depth", '.', CheckNonSync, func(parent Walkable, oldPrefix, path string, value any, desc Descriptor) {
		visits++
		assert.Equal(t, root.inner, parent)
		assert.Equal(t, "inner", oldPrefix, "prefix matches what a walk would report")
		assert.Equal(t, "inner.depth", path)
		assert.Equal(t, 3, value)
		assert.Equal(t, "depth", desc.Name)
	})
	assert.Equal(t, 1, visits, "drill visits exactly once")
}

func TestDrillTopLevel(t *testing.T) {
	visits := 0
	Drill(newRootFixture(), "name", '.', CheckNonSync, func(_ Walkable, oldPrefix, path string, value any, _ Descriptor) {
		visits++
		assert.Equal(t, "", oldPrefix)
		assert.Equal(t, "name", path)
		assert.Equal(t, "n", value)
	})
	assert.Equal(t, 1, visits)
}

func TestDrillMissesCleanly(t *testing.T) {
	tests := []string{"nope", "inner.nope", "inner.depth.deeper", "name.extra"}
	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			visits := 0
			Drill(newRootFixture(), target, '.', CheckNonSync, func(_ Walkable, _, _ string, _ any, _ Descriptor) {
				visits++
			})
			assert.Equal(t, 0, visits, "unresolvable path never calls the visitor")
		})
	}
}

func TestDrillHonorsNonSync(t *testing.T) {
	visits := 0
	Drill(newRootFixture(), "secret", '.', CheckNonSync, func(_ Walkable, _, _ string, _ any, _ Descriptor) {
		visits++
	})
	assert.Equal(t, 0, visits)

	Drill(newRootFixture(), "secret", '.', IgnoreNonSync, func(_ Walkable, _, _ string, _ any, _ Descriptor) {
		visits++
	})
	assert.Equal(t, 1, visits)
}

func TestNumericRangeClamp(t *testing.T) {
	r := NumericRange{Min: 0, Max: 10}
	require.Equal(t, 0.0, r.Clamp(-5))
	require.Equal(t, 10.0, r.Clamp(99))
	require.Equal(t, 7.0, r.Clamp(7))
}
