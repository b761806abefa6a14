package core

import "context"

// Frame is an encoded wire payload sent to a signaling connection.
type Frame []byte

// ConnID identifies one live socket, unique for the process lifetime.
type ConnID string

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Backplane mirrors events between relay instances over a shared
// pub/sub medium. Publish is best-effort and must never block or
// fail loudly; a down backplane only disables cross-instance delivery.
type Backplane interface {
	Publish(ctx context.Context, env Envelope)
	Subscribe(ctx context.Context, handler func(Envelope))
	Degraded() bool
	Close() error
}
