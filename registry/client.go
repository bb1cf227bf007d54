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

// clientEntry pairs the active config with its baseline copy. The baseline
// mirrors the server's authoritative state; the active config carries local
// pending edits on top of it.
type clientEntry struct {
	active config.Config
	base   config.Config
	mgr    *update.Manager
	perm   int
}

// Forward is a setting another player proposed to this client. It stays
// queued until accepted or denied.
type Forward struct {
	// Scope is the target config's scope key
	Scope string
	// Path is the full dotted path of the proposed field
	Path string
	// Payload is the flat single-key delta form of the proposed value
	Payload string
	// Sender names the proposing player
	Sender string
	// Summary is the display form of the proposed value
	Summary string
}

// Client is the client-side config registry
type Client struct {
	mu      sync.RWMutex
	entries map[string]*clientEntry
	queue   []Forward
	logger  *slog.Logger
}

// NewClient creates an empty client registry
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		entries: make(map[string]*clientEntry),
		logger:  logger.With("component", "ClientRegistry"),
	}
}

// Register adds an active/baseline config pair under the active config's
// scope. Both arguments must be distinct instances of the same config type.
func (c *Client) Register(active, base config.Config) error {
	scope := active.ID().String()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[scope]; exists {
		return errors.WrapInvalid(errors.ErrAlreadyRegistered, "ClientRegistry", "Register", fmt.Sprintf("scope %q", scope))
	}
	c.entries[scope] = &clientEntry{
		active: active,
		base:   base,
		mgr:    newManagerFor(active, c.logger),
	}
	c.logger.Info("registered client config", "scope", scope)
	return nil
}

// Scopes returns the registered scope keys
func (c *Client) Scopes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for scope := range c.entries {
		out = append(out, scope)
	}
	return out
}

// Config returns the active config registered under scope
func (c *Client) Config(scope string) (config.Config, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[scope]
	if !ok {
		return nil, false
	}
	return e.active, true
}

// Manager returns the update manager for the active config under scope
func (c *Client) Manager(scope string) (*update.Manager, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[scope]
	if !ok {
		return nil, false
	}
	return e.mgr, true
}

// ReceiveSync applies a full server payload to both the active config and the
// baseline, then reopens the edit session. Local pending edits are discarded:
// the server state is authoritative at join.
func (c *Client) ReceiveSync(scope, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[scope]
	if !ok {
		return errors.WrapInvalid(errors.ErrUnknownScope, "ClientRegistry", "ReceiveSync", fmt.Sprintf("scope %q", scope))
	}
	c.applyFull(scope, e, payload)
	return nil
}

// ReceiveReloadSync applies a full server payload after a server-side config
// reload. Fields marked as requiring restart keep their new value but only
// take effect after the client restarts; the client is informed via log.
func (c *Client) ReceiveReloadSync(scope, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[scope]
	if !ok {
		return errors.WrapInvalid(errors.ErrUnknownScope, "ClientRegistry", "ReceiveReloadSync", fmt.Sprintf("scope %q", scope))
	}
	c.applyFull(scope, e, payload)
	if n := countRestartFields(e.active); n > 0 {
		c.logger.Warn("server config reload touched restart-gated settings",
			"scope", scope, "fields", n)
	}
	return nil
}

func (c *Client) applyFull(scope string, e *clientEntry, payload string) {
	var errs []string
	config.Deserialize(e.active, payload, &errs, schema.CheckNonSync)
	config.Deserialize(e.base, payload, &errs, schema.CheckNonSync)
	for _, msg := range errs {
		c.logger.Warn("sync apply issue", "scope", scope, "issue", msg)
	}
	e.mgr.FlushHistory()
	e.mgr.PushAll()
}

// ReceivePerms records the permission level the server granted this client
// for scope
func (c *Client) ReceivePerms(scope string, level int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[scope]; ok {
		e.perm = level
	}
}

// Perms returns the recorded permission level for scope, 0 when unknown
func (c *Client) Perms(scope string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[scope]; ok {
		return e.perm
	}
	return 0
}

// ReceiveUpdate applies server-rebroadcast deltas to both the active config
// and the baseline, reconciling any matching pending paths, and logs the
// attached change history attributed to the originating player.
func (c *Client) ReceiveUpdate(updates map[string]string, changeHistory []string, player string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for scope, payload := range updates {
		e, ok := c.entries[scope]
		if !ok {
			c.logger.Warn("update for unregistered scope dropped", "scope", scope)
			continue
		}
		var errs []string
		config.DeserializeUpdate(e.active, e.mgr, payload, &errs)
		config.DeserializeUpdate(e.base, nil, payload, &errs)
		for _, msg := range errs {
			c.logger.Warn("update apply issue", "scope", scope, "issue", msg)
		}
		update.PrintChangeHistory(c.logger, changeHistory, scope, player)
	}
}

// HandleForwardedSetting queues a setting proposal from another player for
// later acceptance
func (c *Client) HandleForwardedSetting(f Forward) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, f)
	c.logger.Info("received forwarded setting",
		"scope", f.Scope, "path", f.Path, "sender", f.Sender, "value", f.Summary)
}

// Forwards returns the queued setting proposals
func (c *Client) Forwards() []Forward {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Forward, len(c.queue))
	copy(out, c.queue)
	return out
}

// AcceptForward applies the queued proposal at index to the active config as
// a local pending edit, then removes it from the queue
func (c *Client) AcceptForward(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.queue) {
		return errors.WrapInvalid(errors.ErrFieldNotFound, "ClientRegistry", "AcceptForward", "index check")
	}
	f := c.queue[index]
	e, ok := c.entries[f.Scope]
	if !ok {
		return errors.WrapInvalid(errors.ErrUnknownScope, "ClientRegistry", "AcceptForward", fmt.Sprintf("scope %q", f.Scope))
	}
	var errs []string
	result := config.DeserializeUpdate(e.active, nil, f.Payload, &errs)
	for _, msg := range errs {
		c.logger.Warn("forwarded setting apply issue", "scope", f.Scope, "issue", msg)
	}
	e.mgr.Sync()
	e.mgr.AddUpdateMessage(f.Path, fmt.Sprintf("%s: accepted forwarded value [%s] from %s", f.Path, f.Summary, f.Sender))
	c.queue = append(c.queue[:index], c.queue[index+1:]...)
	if result.IsError() {
		return errors.WrapInvalid(errors.ErrFieldValidation, "ClientRegistry", "AcceptForward", "delta apply")
	}
	return nil
}

// DenyForward drops the queued proposal at index
func (c *Client) DenyForward(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.queue) {
		return errors.WrapInvalid(errors.ErrFieldNotFound, "ClientRegistry", "DenyForward", "index check")
	}
	f := c.queue[index]
	c.queue = append(c.queue[:index], c.queue[index+1:]...)
	c.logger.Info("denied forwarded setting", "scope", f.Scope, "path", f.Path, "sender", f.Sender)
	return nil
}

// Clear empties the registry on disconnect. Registered configs revert to
// purely local use until the next connection re-registers them.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*clientEntry)
	c.queue = nil
	c.logger.Info("client registry cleared")
}

// countRestartFields counts syncable fields marked RequiresRestart
func countRestartFields(cfg config.Config) int {
	n := 0
	schema.Walk(cfg, cfg.ID().String(), schema.CheckNonSync,
		func(parent schema.Walkable, oldPrefix, path string, value any, desc schema.Descriptor) {
			if desc.Meta.RequiresRestart {
				n++
			}
		})
	return n
}
