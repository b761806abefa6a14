// Package http wires the relay's HTTP surface: liveness, the notify
// ingest endpoint, and the websocket upgrade route.
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/crispytalk/rtc-relay/internal/adapters/signal"
	"github.com/crispytalk/rtc-relay/internal/config"
	"github.com/crispytalk/rtc-relay/internal/relay"
)

func SetupRouter(ctx context.Context, cfg *config.Config, rel *relay.Relay, reg *relay.Registry) (*gin.Engine, error) {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	ctl, err := signal.NewController(rel, reg, cfg)
	if err != nil {
		return nil, err
	}

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "WebRTC signaling server is running.")
	})

	r.POST("/notify", NotifyHandler(rel))

	r.GET("/ws", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r, nil
}
