package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/confsync/errors"
)

func TestConnStateString(t *testing.T) {
	tests := []struct {
		state ConnState
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateReconnecting, "reconnecting"},
		{StateCircuitOpen, "circuit_open"},
		{ConnState(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestConnectCancelledLeavesDisconnected(t *testing.T) {
	transport := NewNATSTransport("nats://127.0.0.1:1", testLogger(), WithTimeout(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := transport.Connect(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, StateDisconnected, transport.State(),
		"a cancelled dial never leaves a usable connection behind")
	assert.ErrorIs(t, transport.Publish(context.Background(), SubjectUpdate, []byte("x")),
		errors.ErrNotConnected)
}

func TestConnectFailureRecordsState(t *testing.T) {
	transport := NewNATSTransport("nats://127.0.0.1:1", testLogger(), WithTimeout(50*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.Error(t, transport.Connect(ctx))
	assert.Equal(t, StateDisconnected, transport.State())
}
