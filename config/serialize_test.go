package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/confsync/field"
	"github.com/c360/confsync/schema"
	"github.com/c360/confsync/update"
)

type testSection struct {
	Budget *field.Int
}

func (s *testSection) SchemaFields() []schema.Descriptor {
	return []schema.Descriptor{
		{Name: "budget", Get: func() any { return s.Budget },
			Meta: schema.FieldMeta{Comment: "Work budget"}},
	}
}

type testConfig struct {
	Base

	IntField *field.Int
	Name     *field.String
	Hidden   *field.Bool
	RawCount int
	Section  *testSection
}

func newTestConfig() *testConfig {
	return &testConfig{
		Base:     NewBase(NewIdentifier("test", "main"), 2),
		IntField: field.NewInt(5, 0, 10),
		Name:     field.NewString("default"),
		Hidden:   field.NewBool(false),
		RawCount: 50,
		Section:  &testSection{Budget: field.NewInt(20, 0, 100)},
	}
}

func (c *testConfig) SchemaFields() []schema.Descriptor {
	return []schema.Descriptor{
		{Name: "intField", Get: func() any { return c.IntField },
			Meta: schema.FieldMeta{Comment: "A bounded int"}},
		{Name: "name", Get: func() any { return c.Name }},
		{Name: "hidden", Get: func() any { return c.Hidden },
			Meta: schema.FieldMeta{NonSync: true}},
		{Name: "rawCount", Get: func() any { return c.RawCount },
			Set: func(v any) error {
				c.RawCount = v.(int)
				return nil
			},
			Meta: schema.FieldMeta{Range: &schema.NumericRange{Min: 0, Max: 100}}},
		{Name: "section", Get: func() any { return c.Section }},
	}
}

func TestSerializeVersionFirst(t *testing.T) {
	cfg := newTestConfig()
	var errs []string
	el := SerializeToElement(cfg, &errs, schema.IgnoreNonSync)
	require.Empty(t, errs)

	tbl, err := el.AsTable()
	require.NoError(t, err)
	keys := tbl.Keys()
	require.NotEmpty(t, keys)
	assert.Equal(t, "version", keys[0], "version key is written first")
	assert.Equal(t, []string{"version", "intField", "name", "hidden", "rawCount", "section"}, keys)
}

func TestSerializeCommentsAndRange(t *testing.T) {
	cfg := newTestConfig()
	var errs []string
	text, err := Serialize(cfg, &errs, schema.IgnoreNonSync)
	require.NoError(t, err)
	require.Empty(t, errs)

	assert.Contains(t, text, "# A bounded int\nintField = 5")
	assert.Contains(t, text, "# Range: 0 to 100\nrawCount = 50")
	assert.Contains(t, text, "[section]")
	assert.Contains(t, text, "# Work budget\nbudget = 20")
}

func TestSerializeNonSyncFlag(t *testing.T) {
	cfg := newTestConfig()
	var errs []string

	full, err := Serialize(cfg, &errs, schema.IgnoreNonSync)
	require.NoError(t, err)
	assert.Contains(t, full, "hidden = false", "local saves include NonSync fields")

	sync, err := Serialize(cfg, &errs, schema.CheckNonSync)
	require.NoError(t, err)
	assert.NotContains(t, sync, "hidden", "sync payloads exclude NonSync fields")
}

func TestDeserializeFullRoundTrip(t *testing.T) {
	src := newTestConfig()
	src.IntField.Accept(8)
	src.Name.Accept("renamed")
	src.RawCount = 77
	src.Section.Budget.Accept(66)

	var errs []string
	text, err := Serialize(src, &errs, schema.IgnoreNonSync)
	require.NoError(t, err)
	require.Empty(t, errs)

	dst := newTestConfig()
	result, version := Deserialize(dst, text, &errs, schema.IgnoreNonSync)
	require.True(t, result.IsValid(), "round trip is clean: %v", errs)
	assert.Equal(t, 2, version)
	assert.Equal(t, int64(8), dst.IntField.Get())
	assert.Equal(t, "renamed", dst.Name.Get())
	assert.Equal(t, 77, dst.RawCount)
	assert.Equal(t, int64(66), dst.Section.Budget.Get())
}

func TestDeserializeCorruptValueClamped(t *testing.T) {
	// a hand-edited file with an out-of-range int: the value clamps, the
	// neighboring field applies untouched, and the result is error-tagged
	text := strings.Join([]string{
		`version = 2`,
		`intField = 99`,
		`name = "keep"`,
		`hidden = false`,
		`rawCount = 50`,
		``,
		`[section]`,
		`budget = 20`,
	}, "\n")

	cfg := newTestConfig()
	var errs []string
	result, version := Deserialize(cfg, text, &errs, schema.IgnoreNonSync)

	assert.Equal(t, 2, version)
	assert.True(t, result.IsError(), "out-of-range field taints the result")
	assert.NotEmpty(t, errs)
	assert.Equal(t, int64(10), cfg.IntField.Get(), "weak correction clamps into range")
	assert.Equal(t, "keep", cfg.Name.Get(), "sibling fields unaffected")
}

func TestDeserializeRawNumericClamped(t *testing.T) {
	text := "version = 2\nintField = 5\nname = \"x\"\nhidden = false\nrawCount = 500\n\n[section]\nbudget = 20\n"
	cfg := newTestConfig()
	var errs []string
	Deserialize(cfg, text, &errs, schema.IgnoreNonSync)
	assert.Equal(t, 100, cfg.RawCount, "raw numerics clamp to the declared range")
}

func TestDeserializeMissingKeyWarns(t *testing.T) {
	cfg := newTestConfig()
	var errs []string
	result, _ := Deserialize(cfg, "version = 2\nname = \"x\"\n", &errs, schema.IgnoreNonSync)

	assert.True(t, result.IsError())
	assert.Equal(t, int64(5), cfg.IntField.Get(), "missing key keeps the default")
	assert.Equal(t, "x", cfg.Name.Get())

	found := false
	for _, msg := range errs {
		if strings.Contains(msg, "intField") && strings.Contains(msg, "not found") {
			found = true
		}
	}
	assert.True(t, found, "missing key recorded: %v", errs)
}

func TestDeserializeMalformed(t *testing.T) {
	cfg := newTestConfig()
	var errs []string
	result, version := Deserialize(cfg, "not [ valid toml ==", &errs, schema.IgnoreNonSync)

	assert.True(t, result.IsError())
	assert.Equal(t, 0, version)
	assert.Equal(t, int64(5), cfg.IntField.Get(), "config untouched at defaults")
}

func registerAll(t *testing.T, cfg *testConfig) *update.Manager {
	t.Helper()
	mgr := update.NewManager(nil)
	schema.Walk(cfg, cfg.ID().String(), schema.IgnoreNonSync,
		func(_ schema.Walkable, _, path string, value any, _ schema.Descriptor) {
			if h, ok := value.(update.Handle); ok {
				require.NoError(t, mgr.RegisterField(path, h))
			}
		})
	mgr.PushAll()
	return mgr
}

func TestSerializeUpdateDeltaOnly(t *testing.T) {
	cfg := newTestConfig()
	mgr := registerAll(t, cfg)
	require.NoError(t, mgr.Set("test.main.intField", int64(9)))

	var errs []string
	payload, err := SerializeUpdate(cfg, mgr, &errs)
	require.NoError(t, err)
	require.Empty(t, errs)

	assert.Contains(t, payload, `"test.main.intField" = 9`)
	assert.NotContains(t, payload, "name", "unchanged fields stay out of the delta")
	assert.NotContains(t, payload, "version")
}

func TestDeserializeUpdateAppliesAndReconciles(t *testing.T) {
	sender := newTestConfig()
	senderMgr := registerAll(t, sender)
	require.NoError(t, senderMgr.Set("test.main.intField", int64(9)))
	require.NoError(t, senderMgr.Set("test.main.section.budget", int64(33)))

	var errs []string
	payload, err := SerializeUpdate(sender, senderMgr, &errs)
	require.NoError(t, err)

	receiver := newTestConfig()
	receiverMgr := registerAll(t, receiver)
	result := DeserializeUpdate(receiver, receiverMgr, payload, &errs)

	require.True(t, result.IsValid(), "delta applies cleanly: %v", errs)
	assert.Equal(t, int64(9), receiver.IntField.Get())
	assert.Equal(t, int64(33), receiver.Section.Budget.Get())
	assert.Equal(t, "default", receiver.Name.Get())
	assert.Equal(t, 0, receiverMgr.ChangeCount(), "applied paths reconcile as not pending")
}

func TestDeserializeUpdateUnknownPathSkipped(t *testing.T) {
	cfg := newTestConfig()
	mgr := registerAll(t, cfg)
	var errs []string
	result := DeserializeUpdate(cfg, mgr, `"test.main.noSuchField" = 1`+"\n", &errs)
	assert.True(t, result.IsError())
	assert.NotEmpty(t, errs)
}

func TestIdentifierString(t *testing.T) {
	id := NewIdentifier("demo", "gameplay")
	assert.Equal(t, "demo.gameplay", id.String())
}
