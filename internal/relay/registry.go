package relay

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/crispytalk/rtc-relay/internal/core"
)

type connEntry struct {
	ID   core.ConnID
	Conn core.SignalConnection
}

// Registry owns the live connection set. Only the signaling adapter
// mutates it (on connect/disconnect); everything else gets snapshots.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]core.SignalConnection
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[core.ConnID]core.SignalConnection),
	}
}

func (r *Registry) Add(id core.ConnID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = conn
	log.Info().Str("module", "relay.registry").Str("conn", string(id)).Msg("connection registered")
}

func (r *Registry) Remove(id core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Info().Str("module", "relay.registry").Str("conn", string(id)).Msg("connection removed")
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Snapshot returns the live set at this instant. Broadcast iterates the
// copy, so a connect/disconnect mid-fanout can never corrupt the walk.
func (r *Registry) Snapshot() []connEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]connEntry, 0, len(r.conns))
	for id, c := range r.conns {
		out = append(out, connEntry{ID: id, Conn: c})
	}
	return out
}
