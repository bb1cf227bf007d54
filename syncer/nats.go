package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/confsync/errors"
)

// ConnState is the NATS transport connection state
type ConnState int

// Connection states
const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateCircuitOpen
)

// String returns the string representation of ConnState
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateCircuitOpen:
		return "circuit_open"
	default:
		return "unknown"
	}
}

// NATSTransport implements Transport over a NATS connection with a circuit
// breaker guarding reconnect storms
type NATSTransport struct {
	url    string
	name   string
	logger *slog.Logger

	state    atomic.Value // ConnState
	failures atomic.Int32
	backoff  atomic.Value // time.Duration

	circuitThreshold int32
	maxBackoff       time.Duration
	reconnectWait    time.Duration
	timeout          time.Duration

	onStateChange func(connected bool)

	mu   sync.RWMutex
	conn *nats.Conn
	subs []*nats.Subscription
}

// NATSOption configures a NATSTransport
type NATSOption func(*NATSTransport)

// WithClientName sets the connection name shown to the NATS server
func WithClientName(name string) NATSOption {
	return func(t *NATSTransport) { t.name = name }
}

// WithTimeout sets the connect timeout
func WithTimeout(d time.Duration) NATSOption {
	return func(t *NATSTransport) { t.timeout = d }
}

// WithStateCallback sets a callback invoked on connect/disconnect, used to
// keep the transport gauge current
func WithStateCallback(fn func(connected bool)) NATSOption {
	return func(t *NATSTransport) { t.onStateChange = fn }
}

// NewNATSTransport creates a transport for the NATS server at url
func NewNATSTransport(url string, logger *slog.Logger, opts ...NATSOption) *NATSTransport {
	if logger == nil {
		logger = slog.Default()
	}
	t := &NATSTransport{
		url:              url,
		logger:           logger.With("component", "NATSTransport"),
		circuitThreshold: 5,
		maxBackoff:       time.Minute,
		reconnectWait:    2 * time.Second,
		timeout:          5 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.state.Store(StateDisconnected)
	t.backoff.Store(time.Second)
	return t
}

// State returns the current connection state
func (t *NATSTransport) State() ConnState {
	v := t.state.Load()
	if v == nil {
		return StateDisconnected
	}
	return v.(ConnState)
}

func (t *NATSTransport) setState(s ConnState) {
	t.state.Store(s)
	if t.onStateChange != nil {
		t.onStateChange(s == StateConnected)
	}
}

// Connect establishes the NATS connection. While the circuit is open,
// connection attempts are refused until the backoff elapses.
func (t *NATSTransport) Connect(ctx context.Context) error {
	if t.State() == StateCircuitOpen {
		return errors.WrapTransient(errors.ErrNotConnected, "NATSTransport", "Connect", "circuit open")
	}
	t.setState(StateConnecting)

	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(t.reconnectWait),
		nats.Timeout(t.timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			t.setState(StateReconnecting)
			t.logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			t.setState(StateConnected)
			t.resetCircuit()
			t.logger.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			t.setState(StateDisconnected)
		}),
	}
	if t.name != "" {
		opts = append(opts, nats.Name(t.name))
	}

	type connResult struct {
		conn *nats.Conn
		err  error
	}
	done := make(chan connResult, 1)
	go func() {
		conn, err := nats.Connect(t.url, opts...)
		done <- connResult{conn: conn, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			t.recordFailure()
			if t.State() != StateCircuitOpen {
				t.setState(StateDisconnected)
			}
			return errors.WrapTransient(res.err, "NATSTransport", "Connect", "establish connection")
		}
		t.mu.Lock()
		t.conn = res.conn
		t.mu.Unlock()
	case <-ctx.Done():
		// the dial may still succeed after cancellation; close the
		// resulting connection instead of leaking it
		go func() {
			if res := <-done; res.conn != nil {
				res.conn.Close()
			}
		}()
		t.recordFailure()
		if t.State() != StateCircuitOpen {
			t.setState(StateDisconnected)
		}
		return errors.WrapTransient(ctx.Err(), "NATSTransport", "Connect", "connection cancelled")
	}

	t.setState(StateConnected)
	t.resetCircuit()
	t.logger.Info("connected to nats", "url", t.url)
	return nil
}

// Publish sends data on subject
func (t *NATSTransport) Publish(_ context.Context, subject string, data []byte) error {
	t.mu.RLock()
	conn := t.conn
	t.mu.RUnlock()
	if conn == nil || !conn.IsConnected() {
		return errors.WrapTransient(errors.ErrNotConnected, "NATSTransport", "Publish", fmt.Sprintf("publish to %s", subject))
	}
	return conn.Publish(subject, data)
}

// Subscribe registers handler for subject. Each delivery runs with a bounded
// per-message context derived from ctx.
func (t *NATSTransport) Subscribe(ctx context.Context, subject string, handler func(ctx context.Context, data []byte)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil || !t.conn.IsConnected() {
		return errors.WrapTransient(errors.ErrNotConnected, "NATSTransport", "Subscribe", fmt.Sprintf("subscribe to %s", subject))
	}
	sub, err := t.conn.Subscribe(subject, func(msg *nats.Msg) {
		msgCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		handler(msgCtx, msg.Data)
	})
	if err != nil {
		return errors.WrapTransient(err, "NATSTransport", "Subscribe", fmt.Sprintf("subscribe to %s", subject))
	}
	t.subs = append(t.subs, sub)
	return nil
}

// Close drains and closes the connection
func (t *NATSTransport) Close(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, sub := range t.subs {
		if err := sub.Unsubscribe(); err != nil {
			t.logger.Warn("unsubscribe failed", "error", err)
		}
	}
	t.subs = nil
	if t.conn != nil {
		drainDone := make(chan error, 1)
		go func() { drainDone <- t.conn.Drain() }()
		select {
		case err := <-drainDone:
			if err != nil {
				t.logger.Warn("drain failed", "error", err)
			}
		case <-ctx.Done():
			t.logger.Warn("drain cancelled, force closing")
		}
		t.conn.Close()
		t.conn = nil
	}
	t.setState(StateDisconnected)
	return nil
}

func (t *NATSTransport) recordFailure() {
	failures := t.failures.Add(1)
	if failures < t.circuitThreshold {
		return
	}
	current := t.State()
	if current == StateCircuitOpen {
		return
	}
	if t.state.CompareAndSwap(current, StateCircuitOpen) {
		backoff := t.backoff.Load().(time.Duration)
		next := backoff * 2
		if next > t.maxBackoff {
			next = t.maxBackoff
		}
		t.backoff.Store(next)
		t.failures.Store(0)
		t.logger.Warn("circuit breaker opened", "failures", failures, "backoff", backoff)
		time.AfterFunc(backoff, func() {
			if t.State() == StateCircuitOpen {
				t.setState(StateDisconnected)
			}
		})
	}
}

func (t *NATSTransport) resetCircuit() {
	t.failures.Store(0)
	t.backoff.Store(time.Second)
}
