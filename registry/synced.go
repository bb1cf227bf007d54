package registry

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/c360/confsync/config"
	"github.com/c360/confsync/errors"
	"github.com/c360/confsync/schema"
	"github.com/c360/confsync/update"
)

// serverEntry holds one authoritative config and its manager. The manager
// exists server-side so delta application can reconcile and so operator-side
// edits produce history the same way client edits do.
type serverEntry struct {
	cfg config.Config
	mgr *update.Manager
}

// Synced is the server-side registry of authoritative configs
type Synced struct {
	mu      sync.RWMutex
	entries map[string]*serverEntry
	store   *config.Store
	logger  *slog.Logger
}

// NewSynced creates an empty server registry. store may be nil, in which case
// applied updates are not persisted to disk.
func NewSynced(store *config.Store, logger *slog.Logger) *Synced {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synced{
		entries: make(map[string]*serverEntry),
		store:   store,
		logger:  logger.With("component", "SyncedRegistry"),
	}
}

// Register adds cfg as the authoritative config for its scope
func (s *Synced) Register(cfg config.Config) error {
	scope := cfg.ID().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[scope]; exists {
		return errors.WrapInvalid(errors.ErrAlreadyRegistered, "SyncedRegistry", "Register", fmt.Sprintf("scope %q", scope))
	}
	s.entries[scope] = &serverEntry{
		cfg: cfg,
		mgr: newManagerFor(cfg, s.logger),
	}
	s.logger.Info("registered synced config", "scope", scope)
	return nil
}

// Scopes returns the registered scope keys
func (s *Synced) Scopes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.entries))
	for scope := range s.entries {
		out = append(out, scope)
	}
	return out
}

// Config returns the authoritative config for scope
func (s *Synced) Config(scope string) (config.Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[scope]
	if !ok {
		return nil, false
	}
	return e.cfg, true
}

// SyncPayloads serializes every registered config for a joining client,
// keyed by scope. NonSync fields are excluded from the payloads.
func (s *Synced) SyncPayloads() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.entries))
	for scope, e := range s.entries {
		var errs []string
		text, err := config.Serialize(e.cfg, &errs, schema.CheckNonSync)
		for _, msg := range errs {
			s.logger.Warn("sync payload issue", "scope", scope, "issue", msg)
		}
		if err != nil {
			s.logger.Error("failed serializing sync payload", "scope", scope, "error", err)
			continue
		}
		out[scope] = text
	}
	return out
}

// ApplyUpdate applies a client delta to the authoritative config for scope
// and persists the result. The caller is responsible for permission gating
// before calling. Returned issues are per-field problems; the config remains
// usable regardless.
func (s *Synced) ApplyUpdate(scope, payload string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[scope]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrUnknownScope, "SyncedRegistry", "ApplyUpdate", fmt.Sprintf("scope %q", scope))
	}
	var errs []string
	config.DeserializeUpdate(e.cfg, e.mgr, payload, &errs)
	if s.store != nil {
		if err := s.store.Save(e.cfg); err != nil {
			s.logger.Error("failed persisting updated config", "scope", scope, "error", err)
		}
	}
	return errs, nil
}

// Mutate runs fn against the authoritative config and manager for scope under
// the registry lock, for operator-side edits
func (s *Synced) Mutate(scope string, fn func(cfg config.Config, mgr *update.Manager) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[scope]
	if !ok {
		return errors.WrapInvalid(errors.ErrUnknownScope, "SyncedRegistry", "Mutate", fmt.Sprintf("scope %q", scope))
	}
	return fn(e.cfg, e.mgr)
}

// Clear empties the registry on server shutdown
func (s *Synced) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*serverEntry)
	s.logger.Info("synced registry cleared")
}
