package update

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360/confsync/errors"
)

// Manager tracks which leaf paths of one root config have pending local
// changes relative to a baseline, and accumulates a human-readable change
// history for the current update session.
//
// Invariant: a path is in the pending set iff its handle's PeekState reports
// true relative to the last flush.
type Manager struct {
	fields  map[string]Handle
	order   []string
	pending map[string]struct{}
	history []string
	logger  *slog.Logger
}

// NewManager creates an empty manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		fields:  make(map[string]Handle),
		pending: make(map[string]struct{}),
		logger:  logger.With("component", "UpdateManager"),
	}
}

// RegisterField binds a handle to its dotted path. Registration happens at
// walk time, after field construction (two-phase init).
func (m *Manager) RegisterField(path string, h Handle) error {
	if path == "" || h == nil {
		return errors.WrapInvalid(errors.ErrFieldNotFound, "UpdateManager", "RegisterField", "argument validation")
	}
	if _, exists := m.fields[path]; !exists {
		m.order = append(m.order, path)
	}
	m.fields[path] = h
	return nil
}

// Handle returns the handle registered at path
func (m *Manager) Handle(path string) (Handle, bool) {
	h, ok := m.fields[path]
	return h, ok
}

// Paths returns all registered paths in registration order
func (m *Manager) Paths() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// PushAll captures a snapshot on every registered field, opening an edit
// session
func (m *Manager) PushAll() {
	for _, h := range m.fields {
		h.PushState()
	}
}

// Set applies input to the field at path with strong correction, recording a
// change message. Setting a field to its current value is a no-op and leaves
// no history entry.
func (m *Manager) Set(path string, input any) error {
	h, ok := m.fields[path]
	if !ok {
		return errors.WrapInvalid(errors.ErrFieldNotFound, "UpdateManager", "Set", fmt.Sprintf("lookup of %q", path))
	}
	outcome := h.TrySet(input)
	if !outcome.Changed {
		return nil
	}
	if outcome.Err != "" {
		m.AddUpdateMessage(path, fmt.Sprintf("%s: attempted update from [%s] errored, corrected to [%s]: %s",
			path, outcome.Old, outcome.New, outcome.Err))
	} else {
		m.AddUpdateMessage(path, fmt.Sprintf("%s: updated from [%s] to [%s]", path, outcome.Old, outcome.New))
	}
	m.refreshPending(path, h)
	return nil
}

// Revert restores the field at path to its pushed snapshot, appending one
// history message
func (m *Manager) Revert(path string) error {
	h, ok := m.fields[path]
	if !ok {
		return errors.WrapInvalid(errors.ErrFieldNotFound, "UpdateManager", "Revert", fmt.Sprintf("lookup of %q", path))
	}
	old := h.ValueString()
	if err := h.Revert(); err != nil {
		m.AddUpdateMessage(path, fmt.Sprintf("%s: revert failed: %s", path, err.Error()))
		return errors.Wrap(err, "UpdateManager", "Revert", fmt.Sprintf("revert of %q", path))
	}
	m.AddUpdateMessage(path, fmt.Sprintf("%s: reverted from [%s] to [%s]", path, old, h.ValueString()))
	m.refreshPending(path, h)
	return nil
}

// RevertAll reverts every field with a pending change
func (m *Manager) RevertAll() {
	for _, path := range m.PendingPaths() {
		_ = m.Revert(path)
	}
}

// Restore resets the field at path to its default, appending one history
// message
func (m *Manager) Restore(path string) error {
	h, ok := m.fields[path]
	if !ok {
		return errors.WrapInvalid(errors.ErrFieldNotFound, "UpdateManager", "Restore", fmt.Sprintf("lookup of %q", path))
	}
	if h.IsDefault() {
		return nil
	}
	old := h.ValueString()
	h.Restore()
	m.AddUpdateMessage(path, fmt.Sprintf("%s: restored default value [%s], was [%s]", path, h.DefaultString(), old))
	m.refreshPending(path, h)
	return nil
}

// RestoreAll resets every field under pathPrefix ("" for all) to defaults
func (m *Manager) RestoreAll(pathPrefix string) {
	for _, path := range m.order {
		if pathPrefix == "" || strings.HasPrefix(path, pathPrefix) {
			_ = m.Restore(path)
		}
	}
}

// HasUpdate reports whether path has a pending change
func (m *Manager) HasUpdate(path string) bool {
	_, ok := m.pending[path]
	return ok
}

// PendingPaths returns paths with pending changes, in registration order
func (m *Manager) PendingPaths() []string {
	out := make([]string, 0, len(m.pending))
	for _, path := range m.order {
		if _, ok := m.pending[path]; ok {
			out = append(out, path)
		}
	}
	return out
}

// ChangeCount returns the number of paths with pending changes
func (m *Manager) ChangeCount() int {
	return len(m.pending)
}

// MarkReconciled closes the edit bracket for path after a server-confirmed
// delta covered it, removing it from the pending set
func (m *Manager) MarkReconciled(path string) {
	if h, ok := m.fields[path]; ok {
		h.PopState()
		h.PushState()
	}
	delete(m.pending, path)
}

// AddUpdateMessage appends a human-readable change record to the session
// history
func (m *Manager) AddUpdateMessage(path, message string) {
	m.history = append(m.history, message)
	m.logger.Debug("config update", "path", path, "change", message)
}

// History returns the accumulated change messages without clearing them
func (m *Manager) History() []string {
	out := make([]string, len(m.history))
	copy(out, m.history)
	return out
}

// FlushHistory returns the accumulated change messages and clears them. The
// pending set is rebuilt from the fields' actual peek state, closing the
// flushed edit session.
func (m *Manager) FlushHistory() []string {
	out := m.history
	m.history = nil
	for path, h := range m.fields {
		h.PopState()
		h.PushState()
		delete(m.pending, path)
	}
	return out
}

// Sync re-derives the pending set from every handle's peek state
func (m *Manager) Sync() {
	for path, h := range m.fields {
		m.refreshPending(path, h)
	}
}

func (m *Manager) refreshPending(path string, h Handle) {
	if h.PeekState() {
		m.pending[path] = struct{}{}
	} else {
		delete(m.pending, path)
	}
}

// PrintChangeHistory logs a completed update session in a banner block,
// optionally attributing it to a player
func PrintChangeHistory(logger *slog.Logger, history []string, id string, player string) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("completed config updates", "config", id)
	if player != "" {
		logger.Info("updates made by", "player", player)
	}
	for _, change := range history {
		logger.Info("  " + change)
	}
}
