// Package config defines the config contract and the TOML serialization
// engine over it: full-document serialization with per-field error recovery,
// delta payloads restricted to pending update paths, and file persistence
// with version migration.
package config

import "github.com/c360/confsync/schema"

// Identifier names a config within a two-level namespace. Its string form
// "namespace.path" is the scope key used for registries, update paths, and
// transport subjects.
type Identifier struct {
	Namespace string
	Path      string
}

// NewIdentifier creates an identifier
func NewIdentifier(namespace, path string) Identifier {
	return Identifier{Namespace: namespace, Path: path}
}

// String returns the scope form "namespace.path"
func (id Identifier) String() string {
	return id.Namespace + "." + id.Path
}

// Config is the contract a root config object implements. Field traversal
// comes from schema.Walkable; the rest is identity, file placement, and
// version migration.
type Config interface {
	schema.Walkable
	// ID returns the config's identifier
	ID() Identifier
	// Folder is the directory under the config root holding this config's file
	Folder() string
	// Subfolder optionally nests the file one level deeper, "" for none
	Subfolder() string
	// Version is the current schema version of the config type
	Version() int
	// Update migrates state loaded from a file written at oldVersion. It runs
	// before the migrated file is written back.
	Update(oldVersion int)
}

// Base provides the identity half of the Config contract for embedding.
// Embedders still implement SchemaFields and may override Update.
type Base struct {
	id        Identifier
	folder    string
	subfolder string
	version   int
}

// NewBase creates a Base storing id and version, filed under the namespace
// directory
func NewBase(id Identifier, version int) Base {
	return Base{id: id, folder: id.Namespace, version: version}
}

// SetFolders overrides the default file placement
func (b *Base) SetFolders(folder, subfolder string) {
	b.folder = folder
	b.subfolder = subfolder
}

// ID returns the config's identifier
func (b *Base) ID() Identifier {
	return b.id
}

// Folder returns the directory under the config root
func (b *Base) Folder() string {
	return b.folder
}

// Subfolder returns the optional nested directory
func (b *Base) Subfolder() string {
	return b.subfolder
}

// Version returns the config type's schema version
func (b *Base) Version() int {
	return b.version
}

// Update is a no-op migration hook; embedders override it when old file
// versions need rewriting
func (b *Base) Update(oldVersion int) {}
