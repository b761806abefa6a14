package relay

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crispytalk/rtc-relay/internal/core"
)

// recorderConn captures frames in arrival order.
type recorderConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (c *recorderConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *recorderConn) Close() {}

func (c *recorderConn) messages(t *testing.T) []core.Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Message, 0, len(c.frames))
	for _, f := range c.frames {
		var m core.Message
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

// fakeBus wires every subscribed relay to every publish, echoing
// publishes back to the publisher the way Redis pub/sub does.
type fakeBus struct {
	mu       sync.Mutex
	handlers []func(core.Envelope)
	down     bool
}

func (b *fakeBus) Publish(_ context.Context, env core.Envelope) {
	b.mu.Lock()
	handlers := append([]func(core.Envelope){}, b.handlers...)
	down := b.down
	b.mu.Unlock()
	if down {
		return
	}
	for _, h := range handlers {
		h(env)
	}
}

func (b *fakeBus) Subscribe(_ context.Context, handler func(core.Envelope)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

func (b *fakeBus) Degraded() bool { return b.down }
func (b *fakeBus) Close() error   { return nil }

func TestBroadcastFromSkipsOriginator(t *testing.T) {
	reg := NewRegistry()
	rel := New(context.Background(), reg, &fakeBus{})

	c1 := &recorderConn{}
	c2 := &recorderConn{}
	reg.Add("c1", c1)
	reg.Add("c2", c2)

	rel.BroadcastFrom("c1", "chatMessage", json.RawMessage(`{"text":"hi"}`))

	assert.Empty(t, c1.messages(t))
	msgs := c2.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, "chatMessage", msgs[0].Event)
	assert.JSONEq(t, `{"text":"hi"}`, string(msgs[0].Data))
}

func TestBroadcastCrossInstanceExactlyOnce(t *testing.T) {
	bus := &fakeBus{}

	regA := NewRegistry()
	relA := New(context.Background(), regA, bus)
	regB := NewRegistry()
	New(context.Background(), regB, bus)

	c1 := &recorderConn{}
	c2 := &recorderConn{}
	regA.Add("c1", c1)
	regB.Add("c2", c2)

	relA.BroadcastFrom("c1", "offer", json.RawMessage(`{"sdp":"v=0"}`))

	// The bus echoes A's publish back to A; the origin tag must stop it
	// from reaching c1 or duplicating anything.
	assert.Empty(t, c1.messages(t))
	msgs := c2.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, "offer", msgs[0].Event)
}

func TestBroadcastAllReachesEveryConnection(t *testing.T) {
	bus := &fakeBus{}

	regA := NewRegistry()
	relA := New(context.Background(), regA, bus)
	regB := NewRegistry()
	New(context.Background(), regB, bus)

	c1 := &recorderConn{}
	c2 := &recorderConn{}
	c3 := &recorderConn{}
	regA.Add("c1", c1)
	regA.Add("c2", c2)
	regB.Add("c3", c3)

	relA.BroadcastAll("PostStatusUpdated", json.RawMessage(`{"post_id":5,"status":"completed"}`))

	for _, c := range []*recorderConn{c1, c2, c3} {
		msgs := c.messages(t)
		require.Len(t, msgs, 1)
		assert.Equal(t, "PostStatusUpdated", msgs[0].Event)
		assert.JSONEq(t, `{"post_id":5,"status":"completed"}`, string(msgs[0].Data))
	}
}

func TestDisconnectedConnectionReceivesNothing(t *testing.T) {
	reg := NewRegistry()
	rel := New(context.Background(), reg, &fakeBus{})

	c1 := &recorderConn{}
	c2 := &recorderConn{}
	reg.Add("c1", c1)
	reg.Add("c2", c2)

	reg.Remove("c1")
	rel.BroadcastFrom("c2", "chatMessage", json.RawMessage(`"bye"`))

	assert.Empty(t, c1.messages(t))
	assert.Empty(t, c2.messages(t))
}

func TestDegradedBackplaneStillDeliversLocally(t *testing.T) {
	reg := NewRegistry()
	rel := New(context.Background(), reg, &fakeBus{down: true})

	c1 := &recorderConn{}
	c2 := &recorderConn{}
	reg.Add("c1", c1)
	reg.Add("c2", c2)

	rel.BroadcastFrom("c1", "candidate", json.RawMessage(`{"candidate":"foo"}`))

	assert.Empty(t, c1.messages(t))
	require.Len(t, c2.messages(t), 1)
}

func TestPerSenderOrderingPreserved(t *testing.T) {
	reg := NewRegistry()
	rel := New(context.Background(), reg, &fakeBus{})

	c1 := &recorderConn{}
	c2 := &recorderConn{}
	reg.Add("c1", c1)
	reg.Add("c2", c2)

	rel.BroadcastFrom("c1", "chatMessage", json.RawMessage(`"a"`))
	rel.BroadcastFrom("c1", "chatMessage", json.RawMessage(`"b"`))

	msgs := c2.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, `"a"`, string(msgs[0].Data))
	assert.Equal(t, `"b"`, string(msgs[1].Data))
}
