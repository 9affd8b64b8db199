package ipc

import (
	"context"
	"runtime"
	"sync"

	"github.com/dmitrymomot/ipc/core/channel"
	"github.com/dmitrymomot/ipc/pkg/future"
)

// DelayedChannel is a channel facade over a channel that isn't
// synchronously available yet - typically because a ClientRouter hasn't
// finished choosing a connection. The first Call or Listen triggers
// resolve; concurrent and subsequent operations share its result.
type DelayedChannel struct {
	resolve func(context.Context) (*channel.Channel, error)

	mu  sync.Mutex
	fut *future.Future[*channel.Channel]
}

// NewDelayedChannel builds a DelayedChannel that resolves via resolve the
// first time it is used. resolve runs once, under the context of whichever
// call triggers it; callers that arrive later race only on the result, not
// on a fresh resolve of their own - if that first context is canceled
// mid-resolve, every waiter observes the same cancellation even if their
// own context is still live.
func NewDelayedChannel(resolve func(context.Context) (*channel.Channel, error)) *DelayedChannel {
	return &DelayedChannel{resolve: resolve}
}

func (d *DelayedChannel) ensure(ctx context.Context) *future.Future[*channel.Channel] {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fut == nil {
		d.fut = future.Exec(ctx, d.resolve)
	}
	return d.fut
}

// Call waits for resolution, then calls through.
func (d *DelayedChannel) Call(ctx context.Context, command string, arg any) (any, error) {
	target, err := d.ensure(ctx).AwaitContext(ctx)
	if err != nil {
		return nil, err
	}
	return target.Call(ctx, command, arg)
}

// Listen returns a relay event channel immediately, without waiting for
// resolution; a caller can start consuming before the router has picked a
// peer. Once resolution completes the relay is bound to the underlying
// subscription and forwards every event. The relay closes when ctx is
// canceled, when the underlying subscription ends, or - silently, the
// same way a vanished peer ends a subscription - when resolution or the
// subscribe itself fails. The returned error is always nil; the
// signature matches channel.Channel.Listen so the two are
// interchangeable to callers.
func (d *DelayedChannel) Listen(ctx context.Context, event string, arg any) (<-chan any, error) {
	out := make(chan any)
	fut := d.ensure(ctx)

	go func() {
		defer close(out)

		target, err := fut.AwaitContext(ctx)
		if err != nil {
			return
		}
		events, err := target.Listen(ctx, event, arg)
		if err != nil {
			return
		}

		for {
			select {
			case v, ok := <-events:
				if !ok {
					return
				}
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// NextTickChannel proxies target synchronously, except the first Call or
// Listen waits one scheduler tick - approximated with runtime.Gosched -
// before going through. This exists so a caller can obtain a channel
// before the transport has finished its own same-tick setup without
// racing it.
type NextTickChannel struct {
	target *channel.Channel
	tick   chan struct{}
}

// NewNextTickChannel wraps target with a one-shot tick deferral.
func NewNextTickChannel(target *channel.Channel) *NextTickChannel {
	c := &NextTickChannel{target: target, tick: make(chan struct{})}
	go func() {
		runtime.Gosched()
		close(c.tick)
	}()
	return c
}

func (c *NextTickChannel) awaitTick(ctx context.Context) error {
	select {
	case <-c.tick:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call waits out the first-operation tick, then calls through.
func (c *NextTickChannel) Call(ctx context.Context, command string, arg any) (any, error) {
	if err := c.awaitTick(ctx); err != nil {
		return nil, err
	}
	return c.target.Call(ctx, command, arg)
}

// Listen waits out the first-operation tick, then subscribes through.
func (c *NextTickChannel) Listen(ctx context.Context, event string, arg any) (<-chan any, error) {
	if err := c.awaitTick(ctx); err != nil {
		return nil, err
	}
	return c.target.Listen(ctx, event, arg)
}
