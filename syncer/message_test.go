package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"sync", ConfigSync{Scope: "game.rules", Serialized: "version = 1\n"}},
		{"reload sync", ConfigReloadSync{Scope: "game.rules", Serialized: "version = 1\n"}},
		{"permissions", ConfigPermissions{Scope: "game.rules", Level: 3}},
		{"update", ConfigUpdate{
			Updates:       map[string]string{"game.rules": "\"game.rules.rate\" = 2.0\n"},
			ChangeHistory: []string{"game.rules.rate: updated from [1] to [2]"},
			Player:        "alice",
			Permission:    2,
		}},
		{"forward", SettingForward{
			Scope: "game.rules", Path: "game.rules.rate", Serialized: "\"game.rules.rate\" = 2.0\n",
			Sender: "alice", Recipient: "bob", Summary: "2",
		}},
		{"join", Join{Client: "alice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.body)
			require.NoError(t, err)
			decoded, err := Decode(data)
			require.NoError(t, err)
			// Decode returns a pointer to the typed body
			switch want := tt.body.(type) {
			case ConfigSync:
				assert.Equal(t, &want, decoded)
			case ConfigReloadSync:
				assert.Equal(t, &want, decoded)
			case ConfigPermissions:
				assert.Equal(t, &want, decoded)
			case ConfigUpdate:
				assert.Equal(t, &want, decoded)
			case SettingForward:
				assert.Equal(t, &want, decoded)
			case Join:
				assert.Equal(t, &want, decoded)
			}
		})
	}
}

func TestEncodeRejectsForeignType(t *testing.T) {
	_, err := Encode(struct{ X int }{1})
	assert.Error(t, err)
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"kind":"mystery","body":{}}`))
	assert.Error(t, err)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"kind":"join","body":"not an object"}`))
	assert.Error(t, err)
}
