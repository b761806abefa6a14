package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/crispytalk/rtc-relay/internal/relay"
)

type notifyRequest struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

var jsonNull = []byte("null")

// NotifyHandler accepts an externally-triggered event and injects it
// into the fan-out: every connected client on every instance receives
// it. Fire-and-forget; a 200 only means the broadcast was started.
func NotifyHandler(rel *relay.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req notifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Event and data are required."})
			return
		}
		if req.Event == "" || len(req.Data) == 0 || bytes.Equal(req.Data, jsonNull) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Event and data are required."})
			return
		}

		rel.BroadcastAll(req.Event, req.Data)
		log.Info().Str("module", "adapters.http").Str("event", req.Event).Msg("broadcast notify event")

		c.JSON(http.StatusOK, gin.H{"message": "Notification broadcast successfully."})
	}
}
