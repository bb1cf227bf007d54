// Package confsync is a validated-config synchronization framework: configs
// are declared as Go structs whose fields are validated handles, persisted as
// commented TOML, and kept in agreement between a server and its connected
// clients through full syncs at join and delta updates afterward.
//
// # Architecture
//
// The framework is layered bottom-up. Each layer only knows the ones below
// it:
//
//	validation  Result values, validation strength, the Handler contract
//	element     the TOML-shaped value model (ordered tables, comments)
//	schema      explicit field descriptors and config tree walking
//	update      edit sessions: pending state, history, revert/restore
//	field       the built-in validated field types (Int, Float, Bool,
//	            String, Choice, List, Map)
//	config      the serialization engine and the file store
//	registry    client-side and server-side config registries
//	syncer      the wire protocol, transports, permission gating,
//	            quarantine, and the server/client loops
//	command     operator quarantine commands
//	metric      Prometheus instrumentation
//
// # Declaring a config
//
// A config embeds config.Base and declares its fields twice: once as struct
// fields holding validated handles, and once as schema descriptors that give
// each field its serialized name and metadata:
//
//	type GameplayConfig struct {
//		config.Base
//
//		Difficulty *field.Choice[string]
//		MaxPlayers *field.Int
//	}
//
//	func NewGameplayConfig() *GameplayConfig {
//		return &GameplayConfig{
//			Base:       config.NewBase(config.NewIdentifier("demo", "gameplay"), 1),
//			Difficulty: field.NewStringChoice("normal", "easy", "normal", "hard"),
//			MaxPlayers: field.NewInt(20, 1, 200),
//		}
//	}
//
//	func (c *GameplayConfig) SchemaFields() []schema.Descriptor {
//		return []schema.Descriptor{
//			{Name: "difficulty", Get: func() any { return c.Difficulty },
//				Meta: schema.FieldMeta{Comment: "World difficulty"}},
//			{Name: "maxPlayers", Get: func() any { return c.MaxPlayers }},
//		}
//	}
//
// Descriptors are explicit rather than derived by reflection, so what
// serializes, in what order, and with what comments is visible at the
// declaration site. Plain (non-handle) struct fields can participate too by
// giving the descriptor a Set function; numeric ones are clamped to the
// declared range on load.
//
// # Validation
//
// Field handlers never panic on bad input and never return bare errors for
// recoverable problems. Every validation step yields a validation.Result
// carrying both a usable value and any error text, so a config survives a
// hand-edited file: out-of-range values clamp, unknown choices fall back to
// the default, bad collection entries drop with a report, and the rest of
// the config loads untouched.
//
// # Persistence
//
// config.Store reads and writes configs under a root directory as TOML with
// per-field comments. Loading a file from an older declared version invokes
// the config's Update hook for migration; files that fail to parse are
// replaced by defaults. Corrected or migrated files are written back.
//
// # Synchronization
//
// The syncer package connects registries over a Transport (NATS or the
// in-memory Loopback). A joining client announces itself and receives every
// registered config plus its permission level per scope. Local edits are
// tracked by an update.Manager; committing serializes only the changed
// paths as a flat delta, which the server permission-gates, applies to the
// authoritative config, persists, and rebroadcasts to all clients. Updates
// from senders without the required level, or claiming more permission than
// the server granted, are quarantined for operator review via the command
// package. Fields marked NonSync never leave the machine that owns them.
package confsync
