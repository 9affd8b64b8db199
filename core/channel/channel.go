package channel

import (
	"context"

	"github.com/dmitrymomot/ipc/core/wire"
)

// PeerContext is the opaque, connection-scoped context a ServerChannel
// receives with every call: typically an authenticated identity or routing
// key established when the connection was accepted. It carries no
// behavior of its own, only identity.
type PeerContext = any

// ServerChannel is implemented by a registered service. Call serves a
// single request/response; Listen serves an event subscription that
// streams zero or more values until ctx is canceled (explicit
// EventDispose, peer disconnect, or the subscriber stopping).
//
// A Call or Listen that returns before sending on ctx.Done must stop
// promptly; ChannelServer cancels ctx on PromiseCancel/EventDispose and on
// server teardown.
type ServerChannel interface {
	Call(ctx context.Context, peer PeerContext, name string, arg wire.Object) (any, error)
	Listen(ctx context.Context, peer PeerContext, name string, arg wire.Object) (<-chan any, error)
}

// Stats reports ChannelServer activity counters for health and debug
// surfaces.
type Stats struct {
	RequestsProcessed uint64
	RequestsFailed    uint64
	ActiveRequests    int
	PendingRequests   int
}
