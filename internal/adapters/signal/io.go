package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/crispytalk/rtc-relay/internal/core"
)

func (ctl *Controller) writePump(ctx context.Context, id core.ConnID, c *wsSignalConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("writePump write error")
				return
			}
		}
	}
}

// readPump consumes frames until the transport closes. Cleanup here is
// the only place a connection leaves the live set; an error on this
// socket never touches any other connection.
func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, id core.ConnID, c *wsSignalConn) {
	defer func() {
		ctl.Registry.Remove(id)
		cancel()
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.readLimit)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Str("module", "signal").Str("conn", string(id)).Str("reason", err.Error()).Msg("client disconnected")
				return
			}
			ctl.handleFrame(id, data)
		}
	}
}

// handleFrame applies the routing rules. Signaling and chat events go
// to all other connections; anything else is left to the ingest path.
func (ctl *Controller) handleFrame(id core.ConnID, data []byte) {
	var msg core.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("bad frame")
		return
	}

	switch msg.Event {
	case EventChatMessage, EventOffer, EventAnswer, EventCandidate:
		ctl.Relay.BroadcastFrom(id, msg.Event, msg.Data)
	default:
		log.Debug().Str("module", "signal").Str("event", msg.Event).Msg("unhandled event")
	}
}
