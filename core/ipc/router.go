package ipc

import "context"

// ClientRouter selects which Connection a routed channel call or event
// subscription should be dispatched to.
type ClientRouter interface {
	Route(ctx context.Context, hub *IPCServer) (*Connection, error)
}

// PredicateFunc reports whether conn's peer context satisfies a routing
// rule. A non-nil error aborts routing.
type PredicateFunc func(ctx context.Context, peerCtx any) (bool, error)

// StaticRouter routes to the first connection whose peer context
// satisfies predicate, waiting for new connections to join if none
// currently match. It never times out.
type StaticRouter struct {
	predicate PredicateFunc
}

// NewStaticRouter builds a StaticRouter from predicate.
func NewStaticRouter(predicate PredicateFunc) *StaticRouter {
	return &StaticRouter{predicate: predicate}
}

// Route implements ClientRouter.
func (r *StaticRouter) Route(ctx context.Context, hub *IPCServer) (*Connection, error) {
	for {
		for _, conn := range hub.Connections() {
			ok, err := r.predicate(ctx, conn.Ctx)
			if err != nil {
				return nil, err
			}
			if ok {
				return conn, nil
			}
		}

		changed := hub.WaitForChange(ctx)
		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
