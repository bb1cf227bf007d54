// Package registry holds the explicit config registries: the client side
// tracks active/baseline config pairs with their update managers, the server
// side tracks authoritative configs. Registries are plain values constructed
// at startup and passed by reference; there is no package-level state, and
// Clear empties a registry on disconnect.
package registry

import (
	"log/slog"

	"github.com/c360/confsync/config"
	"github.com/c360/confsync/schema"
	"github.com/c360/confsync/update"
)

// RegisterType selects which registries a config joins
type RegisterType int

// Registration targets
const (
	// ClientOnly registers for local use and server-pushed syncs
	ClientOnly RegisterType = iota
	// ServerOnly registers as an authoritative server config
	ServerOnly
	// Both registers on both sides, the common case for synced configs
	Both
)

// String returns the string representation of RegisterType
func (t RegisterType) String() string {
	switch t {
	case ClientOnly:
		return "client"
	case ServerOnly:
		return "server"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// Client reports whether the type includes client registration
func (t RegisterType) Client() bool {
	return t == ClientOnly || t == Both
}

// Server reports whether the type includes server registration
func (t RegisterType) Server() bool {
	return t == ServerOnly || t == Both
}

// newManagerFor builds an update manager with every field of cfg registered
// under its full dotted path, and opens the initial edit session
func newManagerFor(cfg config.Config, logger *slog.Logger) *update.Manager {
	mgr := update.NewManager(logger)
	schema.Walk(cfg, cfg.ID().String(), schema.IgnoreNonSync,
		func(parent schema.Walkable, oldPrefix, path string, value any, desc schema.Descriptor) {
			if h, ok := value.(update.Handle); ok {
				_ = mgr.RegisterField(path, h)
			}
		})
	mgr.PushAll()
	return mgr
}
