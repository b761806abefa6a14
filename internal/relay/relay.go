// Package relay fans events out to connected sockets and mirrors them
// across instances through the backplane.
package relay

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/crispytalk/rtc-relay/internal/core"
)

// Relay bridges local broadcast to the backplane: one logical broadcast
// reaches this instance's sockets directly and every other instance's
// sockets through exactly one hop over the bus. Envelopes are tagged
// with the instance ID so an instance drops its own publishes when the
// bus echoes them back.
type Relay struct {
	instanceID string
	reg        *Registry
	bp         core.Backplane
	ctx        context.Context
}

func New(ctx context.Context, reg *Registry, bp core.Backplane) *Relay {
	r := &Relay{
		instanceID: uuid.NewString(),
		reg:        reg,
		bp:         bp,
		ctx:        ctx,
	}
	bp.Subscribe(ctx, r.onBackplane)
	if bp.Degraded() {
		log.Warn().Str("module", "relay").Msg("backplane degraded, single-instance delivery only")
	}
	return r
}

// BroadcastFrom delivers an event to every live connection except the
// originator, then mirrors it to the other instances. Remote instances
// hold no socket for the originator, so they deliver to all of theirs.
func (r *Relay) BroadcastFrom(origin core.ConnID, event string, data json.RawMessage) {
	r.deliverLocal(origin, event, data)
	r.bp.Publish(r.ctx, core.Envelope{Origin: r.instanceID, Event: event, Data: data})
}

// BroadcastAll delivers an event to every connection on every instance.
// Used by the ingest path, which has no originating socket.
func (r *Relay) BroadcastAll(event string, data json.RawMessage) {
	r.deliverLocal("", event, data)
	r.bp.Publish(r.ctx, core.Envelope{Origin: r.instanceID, Event: event, Data: data})
}

// onBackplane handles envelopes arriving from the bus. Own-origin
// envelopes were already delivered locally at emit time; foreign ones
// are delivered to local sockets only, never re-published.
func (r *Relay) onBackplane(env core.Envelope) {
	if env.Origin == r.instanceID {
		return
	}
	r.deliverLocal("", env.Event, env.Data)
}

func (r *Relay) deliverLocal(skip core.ConnID, event string, data json.RawMessage) {
	frame, err := core.EncodeFrame(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Str("event", event).Msg("encode frame")
		return
	}
	for _, e := range r.reg.Snapshot() {
		if e.ID == skip {
			continue
		}
		if err := e.Conn.TrySend(frame); err != nil {
			log.Warn().
				Err(err).
				Str("module", "relay").
				Str("conn", string(e.ID)).
				Str("event", event).
				Msg("dropped frame")
		}
	}
}
