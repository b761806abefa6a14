package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/crispytalk/rtc-relay/internal/config"
	"github.com/crispytalk/rtc-relay/internal/core"
	"github.com/crispytalk/rtc-relay/internal/relay"
)

var ErrBackpressure = errors.New("backpressure")

// Client events relayed to all other connections.
const (
	EventChatMessage = "chatMessage"
	EventOffer       = "offer"
	EventAnswer      = "answer"
	EventCandidate   = "candidate"

	// Sent once to each connection right after accept.
	EventIceServers = "iceServers"
)

// Controller owns the websocket side of the relay: it accepts
// connections, registers them, and applies the routing rules to every
// inbound frame. Payloads pass through opaquely.
type Controller struct {
	Relay    *relay.Relay
	Registry *relay.Registry

	iceFrame  core.Frame
	readLimit int64
}

func NewController(rel *relay.Relay, reg *relay.Registry, cfg *config.Config) (*Controller, error) {
	iceFrame, err := encodeIceServers(cfg.IceServers)
	if err != nil {
		return nil, err
	}
	return &Controller{
		Relay:     rel,
		Registry:  reg,
		iceFrame:  iceFrame,
		readLimit: cfg.ReadLimit,
	}, nil
}

// encodeIceServers builds the iceServers frame once; the descriptor
// list is constant for the process lifetime.
func encodeIceServers(servers []config.IceServer) (core.Frame, error) {
	ice := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		ice = append(ice, webrtc.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	data, err := json.Marshal(ice)
	if err != nil {
		return nil, err
	}
	return core.EncodeFrame(EventIceServers, data)
}

// WSConn is an indirection over *websocket.Conn to ease testing.
type WSConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	Close() error
}

type wsSignalConn struct {
	conn WSConn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection lifecycle:
// register, send iceServers to this socket alone, pump until close.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	id := core.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("conn", string(id)).Msg("new client connected")

	conn := &wsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	ctl.Registry.Add(id, conn)

	if err := conn.TrySend(ctl.iceFrame); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("send iceServers")
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, id, conn)
	go ctl.readPump(ctx, cancel, id, conn)
}
