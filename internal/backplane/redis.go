// Package backplane synchronizes events between relay instances over
// Redis pub/sub. One client publishes, a second client subscribes, so
// a blocked subscriber connection can never stall outgoing publishes.
package backplane

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/crispytalk/rtc-relay/internal/core"
)

// Channel is the single logical stream shared by all relay instances.
const Channel = "rtc:events"

var ErrUnavailable = errors.New("backplane unavailable")

type Redis struct {
	pub *redis.Client
	sub *redis.Client

	degraded bool
	pubsub   *redis.PubSub
}

// Connect dials Redis twice (publish side, subscribe side) and verifies
// reachability within timeout. On any failure it returns a degraded
// client together with ErrUnavailable: the caller keeps running in
// single-instance mode, cross-instance mirroring is simply off.
func Connect(ctx context.Context, url string, timeout time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return &Redis{degraded: true}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	pub := redis.NewClient(opts)
	sub := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pub.Ping(pingCtx).Err(); err != nil {
		_ = pub.Close()
		_ = sub.Close()
		return &Redis{degraded: true}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	log.Info().Str("module", "backplane").Str("channel", Channel).Msg("redis backplane connected")
	return &Redis{pub: pub, sub: sub}, nil
}

// Publish sends the envelope to every instance subscribed to Channel.
// Best-effort: failures are logged at warn level and swallowed.
func (r *Redis) Publish(ctx context.Context, env core.Envelope) {
	if r.degraded {
		return
	}
	b, err := json.Marshal(env)
	if err != nil {
		log.Warn().Err(err).Str("module", "backplane").Msg("publish marshal")
		return
	}
	if err := r.pub.Publish(ctx, Channel, b).Err(); err != nil {
		log.Warn().Err(err).Str("module", "backplane").Msg("publish failed")
	}
}

// Subscribe starts a single consumer goroutine invoking handler for
// every envelope received on Channel. One consumer per instance keeps
// per-publisher ordering intact.
func (r *Redis) Subscribe(ctx context.Context, handler func(core.Envelope)) {
	if r.degraded {
		return
	}
	r.pubsub = r.sub.Subscribe(ctx, Channel)
	go func() {
		for msg := range r.pubsub.Channel() {
			var env core.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Warn().Err(err).Str("module", "backplane").Msg("bad envelope")
				continue
			}
			handler(env)
		}
		log.Info().Str("module", "backplane").Msg("subscription closed")
	}()
}

func (r *Redis) Degraded() bool {
	return r.degraded
}

func (r *Redis) Close() error {
	if r.degraded {
		return nil
	}
	if r.pubsub != nil {
		_ = r.pubsub.Close()
	}
	_ = r.sub.Close()
	return r.pub.Close()
}
