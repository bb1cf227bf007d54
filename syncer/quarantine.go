package syncer

import (
	"fmt"
	"time"
)

// QuarantineState is the lifecycle state of a held update
type QuarantineState int

// Quarantine states. Pending is the only state an entry can leave.
const (
	Pending QuarantineState = iota
	Accepted
	Rejected
	Expired
)

// String returns the string representation of QuarantineState
func (s QuarantineState) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Accepted:
		return "ACCEPTED"
	case Rejected:
		return "REJECTED"
	case Expired:
		return "EXPIRED"
	default:
		return "unknown"
	}
}

// QuarantinedUpdate is one held delta awaiting an operator decision
type QuarantinedUpdate struct {
	ID       string
	Scope    string
	Payload  string
	Sender   string
	Reason   string
	Received time.Time
	State    QuarantineState
}

// Quarantine holds suspect updates until an operator accepts or rejects them.
// It is not safe for concurrent use: the server loop is its only caller.
type Quarantine struct {
	entries map[string]*QuarantinedUpdate
	seq     int
	ttl     time.Duration
}

// NewQuarantine creates a quarantine whose pending entries expire after ttl
func NewQuarantine(ttl time.Duration) *Quarantine {
	return &Quarantine{
		entries: make(map[string]*QuarantinedUpdate),
		ttl:     ttl,
	}
}

// Add holds an update and returns its quarantine id
func (q *Quarantine) Add(scope, payload, sender, reason string, now time.Time) string {
	q.seq++
	id := fmt.Sprintf("q-%d", q.seq)
	q.entries[id] = &QuarantinedUpdate{
		ID:       id,
		Scope:    scope,
		Payload:  payload,
		Sender:   sender,
		Reason:   reason,
		Received: now,
		State:    Pending,
	}
	return id
}

// Inspect returns the entry for id without changing its state
func (q *Quarantine) Inspect(id string) (*QuarantinedUpdate, bool) {
	e, ok := q.entries[id]
	if !ok {
		return nil, false
	}
	copied := *e
	return &copied, true
}

// Accept transitions a pending entry to ACCEPTED and returns it for
// application. Entries in any other state are not returned.
func (q *Quarantine) Accept(id string) (*QuarantinedUpdate, bool) {
	e, ok := q.entries[id]
	if !ok || e.State != Pending {
		return nil, false
	}
	e.State = Accepted
	copied := *e
	return &copied, true
}

// Reject transitions a pending entry to REJECTED and returns it for
// notification
func (q *Quarantine) Reject(id string) (*QuarantinedUpdate, bool) {
	e, ok := q.entries[id]
	if !ok || e.State != Pending {
		return nil, false
	}
	e.State = Rejected
	copied := *e
	return &copied, true
}

// Sweep expires pending entries older than the ttl and drops decided entries,
// returning the newly expired ones
func (q *Quarantine) Sweep(now time.Time) []*QuarantinedUpdate {
	var expired []*QuarantinedUpdate
	for id, e := range q.entries {
		switch e.State {
		case Pending:
			if now.Sub(e.Received) >= q.ttl {
				e.State = Expired
				copied := *e
				expired = append(expired, &copied)
				delete(q.entries, id)
			}
		case Accepted, Rejected:
			delete(q.entries, id)
		}
	}
	return expired
}

// Pending returns copies of all pending entries
func (q *Quarantine) Pending() []*QuarantinedUpdate {
	var out []*QuarantinedUpdate
	for _, e := range q.entries {
		if e.State == Pending {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out
}
