// Package command parses and dispatches the operator quarantine commands:
// inspect, accept, and reject by quarantine id. Every command requires an
// elevated permission level.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/c360/confsync/errors"
	"github.com/c360/confsync/syncer"
)

// OpLevel is the permission level required to run quarantine commands
const OpLevel = 4

// actions accepted by the dispatcher
var actions = map[string]struct{}{
	"inspect": {},
	"accept":  {},
	"reject":  {},
}

// Dispatcher runs operator commands against a sync server
type Dispatcher struct {
	server *syncer.Server
	perms  syncer.PermissionSource
}

// NewDispatcher creates a dispatcher gated by perms
func NewDispatcher(server *syncer.Server, perms syncer.PermissionSource) *Dispatcher {
	return &Dispatcher{server: server, perms: perms}
}

// Execute parses and runs one command line of the form
// "<inspect|accept|reject> <quarantineId>" on behalf of player. The result
// text is what the player sees.
func (d *Dispatcher) Execute(ctx context.Context, player, line string) (string, error) {
	action, id, err := parse(line)
	if err != nil {
		return "", err
	}
	if d.perms.Level(player, "") < OpLevel {
		return "", errors.WrapInvalid(errors.ErrPermissionDenied, "CommandDispatcher", "Execute",
			fmt.Sprintf("player %q below level %d", player, OpLevel))
	}
	return d.server.Quarantine(ctx, action, id)
}

// parse splits a command line into its action and quarantine id
func parse(line string) (action, id string, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", "", errors.WrapInvalid(
			fmt.Errorf("%w: want \"<inspect|accept|reject> <quarantineId>\", got %q", errors.ErrMalformedUpdate, line),
			"CommandDispatcher", "parse", "argument count")
	}
	action = strings.ToLower(fields[0])
	if _, ok := actions[action]; !ok {
		return "", "", errors.WrapInvalid(
			fmt.Errorf("%w: unknown action %q", errors.ErrMalformedUpdate, fields[0]),
			"CommandDispatcher", "parse", "action check")
	}
	return action, fields[1], nil
}
