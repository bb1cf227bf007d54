package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadOrCreateWritesDefaults(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	cfg := newTestConfig()

	require.NoError(t, store.ReadOrCreate(cfg))

	path := store.Path(cfg)
	assert.Equal(t, filepath.Join(store.root, "test", "main.toml"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 2")
	assert.Contains(t, string(data), "intField = 5")
}

func TestReadOrCreateLoadsExisting(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	saved := newTestConfig()
	saved.IntField.Accept(8)
	require.NoError(t, store.ReadOrCreate(saved))
	require.NoError(t, store.Save(saved))

	loaded := newTestConfig()
	require.NoError(t, store.ReadOrCreate(loaded))
	assert.Equal(t, int64(8), loaded.IntField.Get())
}

func TestReadOrCreateCorrectsAndWritesBack(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	cfg := newTestConfig()
	dir := filepath.Dir(store.Path(cfg))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	bad := "version = 2\nintField = 99\nname = \"keep\"\nhidden = false\nrawCount = 50\n\n[section]\nbudget = 20\n"
	require.NoError(t, os.WriteFile(store.Path(cfg), []byte(bad), 0o644))

	require.NoError(t, store.ReadOrCreate(cfg))
	assert.Equal(t, int64(10), cfg.IntField.Get())

	// corrected content was written back
	data, err := os.ReadFile(store.Path(cfg))
	require.NoError(t, err)
	assert.Contains(t, string(data), "intField = 10")
	assert.Contains(t, string(data), `name = "keep"`)
}

type migratingConfig struct {
	*testConfig
	migratedFrom int
}

func (c *migratingConfig) Update(oldVersion int) {
	c.migratedFrom = oldVersion
	c.Name.Accept("migrated")
}

func TestReadOrCreateMigratesOldVersion(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	cfg := &migratingConfig{testConfig: newTestConfig(), migratedFrom: -1}
	dir := filepath.Dir(store.Path(cfg))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	old := "version = 1\nintField = 5\nname = \"x\"\nhidden = false\nrawCount = 50\n\n[section]\nbudget = 20\n"
	require.NoError(t, os.WriteFile(store.Path(cfg), []byte(old), 0o644))

	require.NoError(t, store.ReadOrCreate(cfg))
	assert.Equal(t, 1, cfg.migratedFrom, "Update received the file's old version")
	assert.Equal(t, "migrated", cfg.Name.Get())

	data, err := os.ReadFile(store.Path(cfg))
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 2", "migrated file written back at current version")
	assert.Contains(t, string(data), `name = "migrated"`)
}

func TestReadOrCreateMalformedFileKeepsDefaults(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	cfg := newTestConfig()
	dir := filepath.Dir(store.Path(cfg))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(store.Path(cfg), []byte("garbage [[["), 0o644))

	require.NoError(t, store.ReadOrCreate(cfg))
	assert.Equal(t, int64(5), cfg.IntField.Get(), "defaults survive a bad file")

	// the bad file was replaced with a valid default document
	data, err := os.ReadFile(store.Path(cfg))
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(string(data), "garbage"))
	assert.Contains(t, string(data), "version = 2")
}

func TestSaveSubfolder(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	cfg := newTestConfig()
	cfg.SetFolders("custom", "nested")
	require.NoError(t, store.Save(cfg))
	assert.FileExists(t, filepath.Join(store.root, "custom", "nested", "main.toml"))
}
