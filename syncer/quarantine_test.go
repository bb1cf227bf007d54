package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuarantineAddAndInspect(t *testing.T) {
	q := NewQuarantine(time.Hour)
	now := time.Now()
	id := q.Add("game.rules", "payload", "mallory", "level too low", now)
	assert.Equal(t, "q-1", id)

	e, ok := q.Inspect(id)
	require.True(t, ok)
	assert.Equal(t, Pending, e.State)
	assert.Equal(t, "mallory", e.Sender)
	assert.Equal(t, "level too low", e.Reason)

	_, ok = q.Inspect("q-99")
	assert.False(t, ok)
}

func TestQuarantineAcceptOnce(t *testing.T) {
	q := NewQuarantine(time.Hour)
	id := q.Add("game.rules", "payload", "mallory", "r", time.Now())

	e, ok := q.Accept(id)
	require.True(t, ok)
	assert.Equal(t, Accepted, e.State)

	_, ok = q.Accept(id)
	assert.False(t, ok, "only pending entries can be accepted")
	_, ok = q.Reject(id)
	assert.False(t, ok, "decided entries cannot change state again")
}

func TestQuarantineReject(t *testing.T) {
	q := NewQuarantine(time.Hour)
	id := q.Add("game.rules", "payload", "mallory", "r", time.Now())
	e, ok := q.Reject(id)
	require.True(t, ok)
	assert.Equal(t, Rejected, e.State)
	_, ok = q.Accept(id)
	assert.False(t, ok)
}

func TestQuarantineSweep(t *testing.T) {
	q := NewQuarantine(time.Minute)
	start := time.Now()
	stale := q.Add("game.rules", "p1", "a", "r", start)
	fresh := q.Add("game.rules", "p2", "b", "r", start.Add(30*time.Second))
	decided := q.Add("game.rules", "p3", "c", "r", start)
	_, ok := q.Accept(decided)
	require.True(t, ok)

	expired := q.Sweep(start.Add(time.Minute))
	require.Len(t, expired, 1)
	assert.Equal(t, stale, expired[0].ID)
	assert.Equal(t, Expired, expired[0].State)

	_, ok = q.Inspect(stale)
	assert.False(t, ok, "expired entry dropped")
	_, ok = q.Inspect(decided)
	assert.False(t, ok, "decided entry dropped on sweep")
	_, ok = q.Inspect(fresh)
	assert.True(t, ok, "fresh pending entry survives")

	pending := q.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, fresh, pending[0].ID)
}

func TestQuarantineStateString(t *testing.T) {
	assert.Equal(t, "PENDING", Pending.String())
	assert.Equal(t, "ACCEPTED", Accepted.String())
	assert.Equal(t, "REJECTED", Rejected.String())
	assert.Equal(t, "EXPIRED", Expired.String())
}
