package syncer

import (
	"context"
	"strings"
	"sync"
)

// Transport is the message channel between server and clients. Publishing is
// fire-and-forget; ordering is guaranteed per subject, not across subjects.
type Transport interface {
	// Publish sends data on subject
	Publish(ctx context.Context, subject string, data []byte) error
	// Subscribe registers handler for subject. Wildcard support follows the
	// NATS convention: "*" matches one token, ">" matches the rest.
	Subscribe(ctx context.Context, subject string, handler func(ctx context.Context, data []byte)) error
	// Close tears the transport down
	Close(ctx context.Context) error
}

// Subject scheme. Client-bound subjects carry the client name as the final
// tokens, so a client subscribes to confsync.client.<name>.> once.
const (
	// SubjectJoin is where clients announce themselves
	SubjectJoin = "confsync.server.join"
	// SubjectUpdate is where clients send delta updates
	SubjectUpdate = "confsync.server.update"
	// SubjectForward is where clients send setting proposals
	SubjectForward = "confsync.server.forward"
	// SubjectBroadcast is where the server rebroadcasts accepted updates
	SubjectBroadcast = "confsync.broadcast.update"
)

// ClientSubject returns the subject for messages bound to one client
func ClientSubject(client, kind string) string {
	return "confsync.client." + client + "." + kind
}

// ClientWildcard returns the subscription pattern covering every message
// bound to one client
func ClientWildcard(client string) string {
	return "confsync.client." + client + ".>"
}

// Loopback is an in-memory transport delivering messages synchronously to
// local subscribers. It backs tests and single-process setups where server
// and client run together.
type Loopback struct {
	mu   sync.RWMutex
	subs []loopbackSub
}

type loopbackSub struct {
	subject string
	handler func(ctx context.Context, data []byte)
}

// NewLoopback creates an empty in-memory transport
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Publish delivers data synchronously to every matching subscriber
func (l *Loopback) Publish(ctx context.Context, subject string, data []byte) error {
	l.mu.RLock()
	matched := make([]loopbackSub, 0, len(l.subs))
	for _, sub := range l.subs {
		if subjectMatches(sub.subject, subject) {
			matched = append(matched, sub)
		}
	}
	l.mu.RUnlock()
	for _, sub := range matched {
		sub.handler(ctx, data)
	}
	return nil
}

// Subscribe registers handler for subject
func (l *Loopback) Subscribe(_ context.Context, subject string, handler func(ctx context.Context, data []byte)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, loopbackSub{subject: subject, handler: handler})
	return nil
}

// Close drops all subscriptions
func (l *Loopback) Close(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = nil
	return nil
}

// subjectMatches implements NATS-style token matching: "*" matches one token,
// ">" matches one or more trailing tokens
func subjectMatches(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")
	for i, tok := range pt {
		if tok == ">" {
			return i < len(st)
		}
		if i >= len(st) {
			return false
		}
		if tok != "*" && tok != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}
