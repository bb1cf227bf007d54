package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360/confsync/config"
	"github.com/c360/confsync/element"
	"github.com/c360/confsync/errors"
	"github.com/c360/confsync/registry"
	"github.com/c360/confsync/schema"
	"github.com/c360/confsync/update"
)

// Client connects a client-side registry to the transport: it announces
// itself at start, applies server syncs and rebroadcast updates, and commits
// local pending edits as delta payloads.
type Client struct {
	name      string
	registry  *registry.Client
	transport Transport
	logger    *slog.Logger
}

// NewClient creates a sync client identified as name
func NewClient(name string, reg *registry.Client, transport Transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		name:      name,
		registry:  reg,
		transport: transport,
		logger:    logger.With("component", "SyncClient", "client", name),
	}
}

// Name returns the client's identity on the wire
func (c *Client) Name() string {
	return c.name
}

// Start subscribes the client's subjects and announces it to the server
func (c *Client) Start(ctx context.Context) error {
	if err := c.transport.Subscribe(ctx, ClientWildcard(c.name), c.receive); err != nil {
		return errors.Wrap(err, "SyncClient", "Start", "client subscription")
	}
	if err := c.transport.Subscribe(ctx, SubjectBroadcast, c.receive); err != nil {
		return errors.Wrap(err, "SyncClient", "Start", "broadcast subscription")
	}
	data, err := Encode(Join{Client: c.name})
	if err != nil {
		return errors.Wrap(err, "SyncClient", "Start", "join encode")
	}
	if err := c.transport.Publish(ctx, SubjectJoin, data); err != nil {
		return errors.Wrap(err, "SyncClient", "Start", "join publish")
	}
	c.logger.Info("announced to sync server")
	return nil
}

// receive decodes and dispatches one server-sent message
func (c *Client) receive(_ context.Context, data []byte) {
	msg, err := Decode(data)
	if err != nil {
		c.logger.Warn("dropped undecodable message", "error", err)
		return
	}
	switch m := msg.(type) {
	case *ConfigSync:
		if err := c.registry.ReceiveSync(m.Scope, m.Serialized); err != nil {
			c.logger.Warn("sync for unregistered scope dropped", "scope", m.Scope)
		}
	case *ConfigReloadSync:
		if err := c.registry.ReceiveReloadSync(m.Scope, m.Serialized); err != nil {
			c.logger.Warn("reload sync for unregistered scope dropped", "scope", m.Scope)
		}
	case *ConfigPermissions:
		c.registry.ReceivePerms(m.Scope, m.Level)
	case *ConfigUpdate:
		c.registry.ReceiveUpdate(m.Updates, m.ChangeHistory, m.Player)
	case *SettingForward:
		c.registry.HandleForwardedSetting(registry.Forward{
			Scope:   m.Scope,
			Path:    m.Path,
			Payload: m.Serialized,
			Sender:  m.Sender,
			Summary: m.Summary,
		})
	default:
		c.logger.Warn("dropped unexpected message kind", "type", fmt.Sprintf("%T", msg))
	}
}

// Commit sends the pending edits for scope to the server as a delta payload
// with their change history, closing the local edit session. With nothing
// pending it is a no-op.
func (c *Client) Commit(ctx context.Context, scope string) error {
	cfg, ok := c.registry.Config(scope)
	if !ok {
		return errors.WrapInvalid(errors.ErrUnknownScope, "SyncClient", "Commit", fmt.Sprintf("scope %q", scope))
	}
	mgr, _ := c.registry.Manager(scope)
	if mgr.ChangeCount() == 0 {
		return nil
	}
	var errs []string
	payload, err := config.SerializeUpdate(cfg, mgr, &errs)
	for _, msg := range errs {
		c.logger.Warn("commit serialize issue", "scope", scope, "issue", msg)
	}
	if err != nil {
		return errors.Wrap(err, "SyncClient", "Commit", "delta serialize")
	}
	data, err := Encode(ConfigUpdate{
		Updates:       map[string]string{scope: payload},
		ChangeHistory: mgr.History(),
		Player:        c.name,
		Permission:    c.registry.Perms(scope),
	})
	if err != nil {
		return errors.Wrap(err, "SyncClient", "Commit", "update encode")
	}
	if err := c.transport.Publish(ctx, SubjectUpdate, data); err != nil {
		return errors.Wrap(err, "SyncClient", "Commit", "update publish")
	}
	// the edit session closes only once the update is on the wire, so a
	// failed publish leaves the pending edits intact for a retry
	history := mgr.FlushHistory()
	c.logger.Info("committed config update", "scope", scope, "changes", len(history))
	return nil
}

// Forward proposes the current value of one setting to another player
func (c *Client) Forward(ctx context.Context, scope, path, recipient string) error {
	cfg, ok := c.registry.Config(scope)
	if !ok {
		return errors.WrapInvalid(errors.ErrUnknownScope, "SyncClient", "Forward", fmt.Sprintf("scope %q", scope))
	}
	var handle update.Handle
	schema.Walk(cfg, scope, schema.CheckNonSync,
		func(parent schema.Walkable, oldPrefix, fieldPath string, value any, desc schema.Descriptor) {
			if fieldPath != path {
				return
			}
			if h, isHandle := value.(update.Handle); isHandle {
				handle = h
			}
		})
	if handle == nil {
		return errors.WrapInvalid(errors.ErrFieldNotFound, "SyncClient", "Forward", fmt.Sprintf("path %q", path))
	}
	var errs []string
	flat := element.NewTable()
	flat.Set(path, handle.SerializeStored(&errs))
	if len(errs) > 0 {
		return errors.WrapInvalid(errors.ErrFieldValidation, "SyncClient", "Forward", "setting serialize")
	}
	payload, err := element.EncodeString(element.NewTableElement(flat))
	if err != nil {
		return errors.Wrap(err, "SyncClient", "Forward", "payload encode")
	}
	data, err := Encode(SettingForward{
		Scope:      scope,
		Path:       path,
		Serialized: payload,
		Sender:     c.name,
		Recipient:  recipient,
		Summary:    handle.ValueString(),
	})
	if err != nil {
		return errors.Wrap(err, "SyncClient", "Forward", "forward encode")
	}
	if err := c.transport.Publish(ctx, SubjectForward, data); err != nil {
		return errors.Wrap(err, "SyncClient", "Forward", "forward publish")
	}
	return nil
}
