package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/confsync/errors"
	"github.com/c360/confsync/metric"
	"github.com/c360/confsync/registry"
	"github.com/c360/confsync/update"
)

// PermissionSource answers what permission level a player holds for a scope
type PermissionSource interface {
	Level(player, scope string) int
}

// LevelFunc adapts a function to PermissionSource
type LevelFunc func(player, scope string) int

// Level implements PermissionSource
func (f LevelFunc) Level(player, scope string) int {
	return f(player, scope)
}

// Notifier delivers chat/system messages to players and operators
type Notifier interface {
	// Notify sends a message to one player
	Notify(player, message string)
	// NotifyOps sends a message to all online operators
	NotifyOps(message string)
}

// LogNotifier is a Notifier writing to the structured log, for servers with
// no chat surface attached
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "Notifier")}
}

// Notify implements Notifier
func (n *LogNotifier) Notify(player, message string) {
	n.logger.Info("player notification", "player", player, "message", message)
}

// NotifyOps implements Notifier
func (n *LogNotifier) NotifyOps(message string) {
	n.logger.Info("operator notification", "message", message)
}

// DefaultUpdateLevel is the permission level required to push config updates
const DefaultUpdateLevel = 2

// inbound is one unit of work for the server loop
type inbound struct {
	join    *Join
	update  *ConfigUpdate
	forward *SettingForward
	cmd     *quarantineCmd
}

type quarantineCmd struct {
	action string
	id     string
	reply  chan string
}

// Server applies client config updates to the authoritative registry and
// rebroadcasts them. All state mutation happens on one goroutine consuming
// the inbound channel; updates are applied in receipt order, and concurrent
// edits of the same field resolve last-writer-wins.
type Server struct {
	registry      *registry.Synced
	transport     Transport
	perms         PermissionSource
	notifier      Notifier
	metrics       *metric.Metrics
	quarantine    *Quarantine
	requiredLevel int
	sweepInterval time.Duration
	logger        *slog.Logger
	inbound       chan inbound
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithMetrics attaches the metric set
func WithMetrics(m *metric.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithNotifier replaces the log-backed notifier
func WithNotifier(n Notifier) ServerOption {
	return func(s *Server) { s.notifier = n }
}

// WithUpdateLevel overrides the permission level required for updates
func WithUpdateLevel(level int) ServerOption {
	return func(s *Server) { s.requiredLevel = level }
}

// WithQuarantineTTL overrides how long pending quarantine entries live
func WithQuarantineTTL(ttl time.Duration) ServerOption {
	return func(s *Server) { s.quarantine = NewQuarantine(ttl) }
}

// NewServer creates a sync server over reg and transport
func NewServer(reg *registry.Synced, transport Transport, perms PermissionSource, logger *slog.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		registry:      reg,
		transport:     transport,
		perms:         perms,
		requiredLevel: DefaultUpdateLevel,
		sweepInterval: time.Minute,
		quarantine:    NewQuarantine(30 * time.Minute),
		logger:        logger.With("component", "SyncServer"),
		inbound:       make(chan inbound, 64),
	}
	s.notifier = NewLogNotifier(logger)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes the server's inbound subjects and launches the loop
// goroutine. The loop exits when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.transport.Subscribe(ctx, SubjectJoin, s.receive); err != nil {
		return errors.Wrap(err, "SyncServer", "Start", "join subscription")
	}
	if err := s.transport.Subscribe(ctx, SubjectUpdate, s.receive); err != nil {
		return errors.Wrap(err, "SyncServer", "Start", "update subscription")
	}
	if err := s.transport.Subscribe(ctx, SubjectForward, s.receive); err != nil {
		return errors.Wrap(err, "SyncServer", "Start", "forward subscription")
	}
	if s.metrics != nil {
		s.metrics.RecordRegisteredConfigs(len(s.registry.Scopes()))
	}
	go s.run(ctx)
	s.logger.Info("sync server started", "scopes", len(s.registry.Scopes()))
	return nil
}

// receive decodes one wire message and hands it to the loop
func (s *Server) receive(ctx context.Context, data []byte) {
	msg, err := Decode(data)
	if err != nil {
		s.logger.Warn("dropped undecodable message", "error", err)
		return
	}
	var in inbound
	switch m := msg.(type) {
	case *Join:
		in.join = m
	case *ConfigUpdate:
		in.update = m
	case *SettingForward:
		in.forward = m
	default:
		s.logger.Warn("dropped unexpected message kind", "type", fmt.Sprintf("%T", msg))
		return
	}
	select {
	case s.inbound <- in:
	case <-ctx.Done():
	}
}

// run is the single consumer of server state
func (s *Server) run(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sync server stopping")
			return
		case in := <-s.inbound:
			switch {
			case in.join != nil:
				s.handleJoin(ctx, in.join)
			case in.update != nil:
				s.handleUpdate(ctx, in.update)
			case in.forward != nil:
				s.handleForward(ctx, in.forward)
			case in.cmd != nil:
				s.handleCommand(ctx, in.cmd)
			}
		case <-ticker.C:
			s.sweepQuarantine()
		}
	}
}

// handleJoin sends the joining client every registered config and its
// permission level for each scope
func (s *Server) handleJoin(ctx context.Context, j *Join) {
	payloads := s.registry.SyncPayloads()
	for scope, text := range payloads {
		s.publish(ctx, ClientSubject(j.Client, KindSync), ConfigSync{Scope: scope, Serialized: text})
		s.publish(ctx, ClientSubject(j.Client, KindPermissions), ConfigPermissions{
			Scope: scope,
			Level: s.perms.Level(j.Client, scope),
		})
		if s.metrics != nil {
			s.metrics.RecordSyncPayload(len(text))
		}
	}
	s.logger.Info("synced joining client", "client", j.Client, "configs", len(payloads))
}

// handleUpdate gates a client delta on permissions, then applies and
// rebroadcasts it. A sender without the required level, or one whose claimed
// permission exceeds what this server granted, is quarantined rather than
// applied.
func (s *Server) handleUpdate(ctx context.Context, u *ConfigUpdate) {
	for scope, payload := range u.Updates {
		actual := s.perms.Level(u.Player, scope)
		if actual < s.requiredLevel || u.Permission > actual {
			reason := fmt.Sprintf("permission level %d below required %d", actual, s.requiredLevel)
			if u.Permission > actual {
				reason = fmt.Sprintf("claimed permission %d exceeds granted %d", u.Permission, actual)
			}
			id := s.quarantine.Add(scope, payload, u.Player, reason, time.Now())
			if s.metrics != nil {
				s.metrics.RecordUpdateQuarantined(scope)
			}
			s.notifier.NotifyOps(fmt.Sprintf(
				"Update [%s] to config [%s] from player [%s] held in quarantine: %s. inspect/accept/reject with the quarantine command.",
				id, scope, u.Player, reason))
			s.logger.Warn("update quarantined",
				"id", id, "scope", scope, "player", u.Player, "reason", reason)
			continue
		}
		s.applyAndBroadcast(ctx, scope, payload, u.ChangeHistory, u.Player, actual)
	}
}

// applyAndBroadcast applies one delta to the authoritative config and
// rebroadcasts it to all clients
func (s *Server) applyAndBroadcast(ctx context.Context, scope, payload string, history []string, player string, level int) {
	issues, err := s.registry.ApplyUpdate(scope, payload)
	if err != nil {
		s.logger.Warn("update for unknown scope dropped", "scope", scope, "player", player)
		if s.metrics != nil {
			s.metrics.RecordUpdateRejected(scope)
		}
		s.notifier.Notify(player, fmt.Sprintf("Update to unknown config [%s] was dropped", scope))
		return
	}
	for _, issue := range issues {
		s.logger.Warn("update apply issue", "scope", scope, "issue", issue)
	}
	if s.metrics != nil {
		s.metrics.RecordUpdateApplied(scope)
		s.metrics.RecordDeserializeErrors(scope, len(issues))
	}
	update.PrintChangeHistory(s.logger, history, scope, player)
	s.publish(ctx, SubjectBroadcast, ConfigUpdate{
		Updates:       map[string]string{scope: payload},
		ChangeHistory: history,
		Player:        player,
		Permission:    level,
	})
}

// handleForward relays a setting proposal to its recipient
func (s *Server) handleForward(ctx context.Context, f *SettingForward) {
	s.publish(ctx, ClientSubject(f.Recipient, KindForward), *f)
	s.logger.Info("forwarded setting",
		"scope", f.Scope, "path", f.Path, "from", f.Sender, "to", f.Recipient)
}

// handleCommand services a quarantine command on the loop goroutine
func (s *Server) handleCommand(ctx context.Context, cmd *quarantineCmd) {
	var result string
	switch cmd.action {
	case "inspect":
		if e, ok := s.quarantine.Inspect(cmd.id); ok {
			result = fmt.Sprintf("[%s] %s: scope=%s sender=%s received=%s reason=%s\n%s",
				e.ID, e.State, e.Scope, e.Sender, e.Received.Format(time.RFC3339), e.Reason, e.Payload)
		} else {
			result = fmt.Sprintf("no quarantine entry [%s]", cmd.id)
		}
	case "accept":
		if e, ok := s.quarantine.Accept(cmd.id); ok {
			s.applyAndBroadcast(ctx, e.Scope, e.Payload, nil, e.Sender, s.requiredLevel)
			s.notifier.Notify(e.Sender, fmt.Sprintf("Your quarantined update to [%s] was accepted", e.Scope))
			result = fmt.Sprintf("accepted quarantine entry [%s] for scope [%s]", e.ID, e.Scope)
		} else {
			result = fmt.Sprintf("no pending quarantine entry [%s]", cmd.id)
		}
	case "reject":
		if e, ok := s.quarantine.Reject(cmd.id); ok {
			if s.metrics != nil {
				s.metrics.RecordUpdateRejected(e.Scope)
			}
			s.notifier.Notify(e.Sender, fmt.Sprintf("Your quarantined update to [%s] was rejected", e.Scope))
			result = fmt.Sprintf("rejected quarantine entry [%s] for scope [%s]", e.ID, e.Scope)
		} else {
			result = fmt.Sprintf("no pending quarantine entry [%s]", cmd.id)
		}
	default:
		result = fmt.Sprintf("unknown quarantine action %q", cmd.action)
	}
	select {
	case cmd.reply <- result:
	default:
	}
}

// sweepQuarantine expires stale pending entries
func (s *Server) sweepQuarantine() {
	for _, e := range s.quarantine.Sweep(time.Now()) {
		s.logger.Info("quarantine entry expired", "id", e.ID, "scope", e.Scope, "sender", e.Sender)
		s.notifier.Notify(e.Sender, fmt.Sprintf("Your quarantined update to [%s] expired without review", e.Scope))
	}
}

// Quarantine runs a quarantine command (inspect, accept, reject) against the
// server loop and returns its result text
func (s *Server) Quarantine(ctx context.Context, action, id string) (string, error) {
	cmd := &quarantineCmd{action: action, id: id, reply: make(chan string, 1)}
	select {
	case s.inbound <- inbound{cmd: cmd}:
	case <-ctx.Done():
		return "", errors.WrapTransient(ctx.Err(), "SyncServer", "Quarantine", "enqueue command")
	}
	select {
	case result := <-cmd.reply:
		return result, nil
	case <-ctx.Done():
		return "", errors.WrapTransient(ctx.Err(), "SyncServer", "Quarantine", "await result")
	}
}

// PushReload serializes the current authoritative config for scope and
// broadcasts it as a reload sync, for server-side file reloads
func (s *Server) PushReload(ctx context.Context, scope string) error {
	payloads := s.registry.SyncPayloads()
	text, ok := payloads[scope]
	if !ok {
		return errors.WrapInvalid(errors.ErrUnknownScope, "SyncServer", "PushReload", fmt.Sprintf("scope %q", scope))
	}
	s.publish(ctx, SubjectBroadcast, ConfigReloadSync{Scope: scope, Serialized: text})
	return nil
}

func (s *Server) publish(ctx context.Context, subject string, body any) {
	data, err := Encode(body)
	if err != nil {
		s.logger.Error("failed encoding message", "subject", subject, "error", err)
		return
	}
	if err := s.transport.Publish(ctx, subject, data); err != nil {
		s.logger.Warn("failed publishing message", "subject", subject, "error", err)
	}
}
