// Package syncer moves config state between server and clients: full syncs at
// join, permission grants, delta updates with permission gating and
// quarantine, and player-to-player setting forwards. Wire messages are JSON
// envelopes whose config bodies are the TOML text the serialization engine
// produces.
package syncer

import (
	"encoding/json"
	"fmt"

	"github.com/c360/confsync/errors"
)

// Message kind tags carried in the wire envelope
const (
	KindSync        = "sync"
	KindReloadSync  = "reload_sync"
	KindPermissions = "permissions"
	KindUpdate      = "update"
	KindForward     = "forward"
	KindJoin        = "join"
)

// ConfigSync carries one full serialized config to a client at join
type ConfigSync struct {
	Scope      string `json:"scope"`
	Serialized string `json:"serialized"`
}

// ConfigReloadSync carries a full serialized config after a server-side
// reload of an already-synced config
type ConfigReloadSync struct {
	Scope      string `json:"scope"`
	Serialized string `json:"serialized"`
}

// ConfigPermissions tells a client its permission level for one scope
type ConfigPermissions struct {
	Scope string `json:"scope"`
	Level int    `json:"level"`
}

// ConfigUpdate carries delta payloads for one or more scopes, the change
// history for the banner log, and the sender's claimed permission level
type ConfigUpdate struct {
	Updates       map[string]string `json:"updates"`
	ChangeHistory []string          `json:"change_history"`
	Player        string            `json:"player"`
	Permission    int               `json:"permission"`
}

// SettingForward proposes a single setting value to another player
type SettingForward struct {
	Scope      string `json:"scope"`
	Path       string `json:"path"`
	Serialized string `json:"serialized"`
	Sender     string `json:"sender"`
	Recipient  string `json:"recipient"`
	Summary    string `json:"summary"`
}

// Join announces a client to the server so it receives full syncs
type Join struct {
	Client string `json:"client"`
}

// envelope is the wire form: a kind tag plus the kind-specific body
type envelope struct {
	Kind string          `json:"kind"`
	Body json.RawMessage `json:"body"`
}

// Encode wraps a message body in its envelope. body must be one of the
// message types of this package.
func Encode(body any) ([]byte, error) {
	kind, err := kindOf(body)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Syncer", "Encode", "body marshal")
	}
	data, err := json.Marshal(envelope{Kind: kind, Body: raw})
	if err != nil {
		return nil, errors.WrapInvalid(err, "Syncer", "Encode", "envelope marshal")
	}
	return data, nil
}

// Decode unwraps a wire envelope into its typed message body
func Decode(data []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrMalformedUpdate, err.Error()),
			"Syncer", "Decode", "envelope unmarshal")
	}
	var body any
	switch env.Kind {
	case KindSync:
		body = &ConfigSync{}
	case KindReloadSync:
		body = &ConfigReloadSync{}
	case KindPermissions:
		body = &ConfigPermissions{}
	case KindUpdate:
		body = &ConfigUpdate{}
	case KindForward:
		body = &SettingForward{}
	case KindJoin:
		body = &Join{}
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: unknown message kind %q", errors.ErrMalformedUpdate, env.Kind),
			"Syncer", "Decode", "kind dispatch")
	}
	if err := json.Unmarshal(env.Body, body); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrMalformedUpdate, err.Error()),
			"Syncer", "Decode", "body unmarshal")
	}
	return body, nil
}

func kindOf(body any) (string, error) {
	switch body.(type) {
	case *ConfigSync, ConfigSync:
		return KindSync, nil
	case *ConfigReloadSync, ConfigReloadSync:
		return KindReloadSync, nil
	case *ConfigPermissions, ConfigPermissions:
		return KindPermissions, nil
	case *ConfigUpdate, ConfigUpdate:
		return KindUpdate, nil
	case *SettingForward, SettingForward:
		return KindForward, nil
	case *Join, Join:
		return KindJoin, nil
	default:
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: type %T is not a wire message", errors.ErrMalformedUpdate, body),
			"Syncer", "Encode", "kind dispatch")
	}
}
