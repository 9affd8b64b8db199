package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/ipc/core/logger"
	"github.com/dmitrymomot/ipc/core/transport"
	"github.com/dmitrymomot/ipc/core/wire"
	"github.com/dmitrymomot/ipc/pkg/broadcast"
)

// DefaultEventBuffer is the per-subscriber buffer used for the broadcaster
// backing each deduplicated wire EventListen subscription.
const DefaultEventBuffer = 16

// ClientOption configures a ChannelClient.
type ClientOption func(*ChannelClient)

// WithClientLogger attaches a logger. The zero value logs nothing.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *ChannelClient) { c.logger = l }
}

// WithEventBufferSize overrides the per-subscription broadcaster buffer
// depth, default DefaultEventBuffer.
func WithEventBufferSize(n int) ClientOption {
	return func(c *ChannelClient) { c.eventBuffer = n }
}

type pendingCall struct {
	result chan callResult
}

type callResult struct {
	value any
	err   error
}

type subscriptionEntry struct {
	id          uint32
	broadcaster *broadcast.MemoryBroadcaster[any]
	refCount    int
}

// ChannelClient sits on the opposite end of a transport.Protocol from a
// ChannelServer. It allocates request ids, correlates responses, and
// multiplexes N local Listen subscribers sharing the same (channel, event,
// arg) onto a single wire EventListen subscription via pkg/broadcast.
type ChannelClient struct {
	proto       transport.Protocol
	logger      *slog.Logger
	eventBuffer int

	ready     chan struct{}
	readyOnce sync.Once

	nextID atomic.Uint32

	mu           sync.Mutex
	pendingCalls map[uint32]*pendingCall
	subsByID     map[uint32]*subscriptionEntry
	subsByKey    map[string]*subscriptionEntry
	disposed     bool

	unsubscribe func()
}

// NewChannelClient constructs a ChannelClient over proto. The client is
// Uninitialized until the peer's ChannelServer announces itself with an
// Initialize frame; Call and Listen block until then (or ctx expires).
func NewChannelClient(proto transport.Protocol, opts ...ClientOption) *ChannelClient {
	c := &ChannelClient{
		proto:        proto,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		eventBuffer:  DefaultEventBuffer,
		ready:        make(chan struct{}),
		pendingCalls: make(map[uint32]*pendingCall),
		subsByID:     make(map[uint32]*subscriptionEntry),
		subsByKey:    make(map[string]*subscriptionEntry),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.unsubscribe = proto.OnMessage(c.onMessage)

	return c
}

// Ready returns a channel closed once the server's Initialize frame has
// arrived.
func (c *ChannelClient) Ready() <-chan struct{} {
	return c.ready
}

func (c *ChannelClient) whenReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetChannel returns a proxy for the named remote channel.
func (c *ChannelClient) GetChannel(name string) *Channel {
	return &Channel{client: c, name: name}
}

func (c *ChannelClient) onMessage(data []byte) {
	f, err := wire.DecodeFrame(data)
	if err != nil {
		c.logger.Error("channel: decode frame", logger.Error(err))
		return
	}

	switch f.Header.Type {
	case wire.TypeInitialize:
		c.readyOnce.Do(func() { close(c.ready) })
	case wire.TypePromiseSuccess:
		c.resolveCall(f.Header.ID, f.Body, nil)
	case wire.TypePromiseError:
		var body struct {
			Name    string `json:"name"`
			Message string `json:"message"`
			Stack   string `json:"stack"`
		}
		if obj, ok := f.Body.(wire.Object); ok {
			_ = obj.Decode(&body)
		}
		c.resolveCall(f.Header.ID, nil, &Error{Name: body.Name, Message: body.Message, Stack: body.Stack})
	case wire.TypePromiseErrorObj:
		c.resolveCall(f.Header.ID, nil, &RawError{Payload: f.Body})
	case wire.TypeEventFire:
		c.dispatchEvent(f.Header.ID, f.Body)
	default:
		c.logger.Warn("channel: unexpected frame type", "type", f.Header.Type.String())
	}
}

func (c *ChannelClient) resolveCall(id uint32, value any, err error) {
	c.mu.Lock()
	pc, ok := c.pendingCalls[id]
	delete(c.pendingCalls, id)
	c.mu.Unlock()

	if ok {
		pc.result <- callResult{value: value, err: err}
	}
}

func (c *ChannelClient) removePendingCall(id uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pendingCalls[id]
	delete(c.pendingCalls, id)
	return ok
}

func (c *ChannelClient) dispatchEvent(id uint32, data any) {
	c.mu.Lock()
	entry, ok := c.subsByID[id]
	c.mu.Unlock()
	if !ok {
		return
	}
	_ = entry.broadcaster.Broadcast(context.Background(), broadcast.Message[any]{Data: data})
}

func (c *ChannelClient) send(f wire.Frame) error {
	data, err := wire.EncodeFrame(f)
	if err != nil {
		return err
	}
	return c.proto.Send(data)
}

func (c *ChannelClient) sendCancel(id uint32) {
	if err := c.send(wire.Frame{Header: wire.Header{Type: wire.TypePromiseCancel, ID: id}}); err != nil {
		c.logger.Error("channel: send cancel", logger.Error(err))
	}
}

// Dispose unblocks every pending call with ErrChannelDisposed, closes every
// subscription broadcaster, and unsubscribes from the transport. Safe to
// call more than once.
func (c *ChannelClient) Dispose() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	pending := c.pendingCalls
	subs := c.subsByID
	c.pendingCalls = make(map[uint32]*pendingCall)
	c.subsByID = make(map[uint32]*subscriptionEntry)
	c.subsByKey = make(map[string]*subscriptionEntry)
	c.mu.Unlock()

	if c.unsubscribe != nil {
		c.unsubscribe()
	}

	for _, pc := range pending {
		pc.result <- callResult{err: ErrChannelDisposed}
	}
	for _, entry := range subs {
		entry.broadcaster.Close()
	}

	return nil
}

// Channel is a proxy for a single named remote channel, scoped to the
// ChannelClient it was obtained from.
type Channel struct {
	client *ChannelClient
	name   string
}

// Call sends a Promise request and blocks for its response. Canceling ctx
// before the server responds sends a PromiseCancel frame (if the request
// had already been sent) and returns ErrCanceled wrapping ctx.Err(); a
// ctx already done on entry fails the same way without any traffic.
func (ch *Channel) Call(ctx context.Context, command string, arg any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, canceledErr(err)
	}
	if err := ch.client.whenReady(ctx); err != nil {
		return nil, canceledErr(err)
	}

	c := ch.client
	id := c.nextID.Add(1)
	result := make(chan callResult, 1)

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, ErrChannelDisposed
	}
	c.pendingCalls[id] = &pendingCall{result: result}
	c.mu.Unlock()

	body, err := wire.Wrap(arg)
	if err != nil {
		c.removePendingCall(id)
		return nil, err
	}

	if err := c.send(wire.Frame{
		Header: wire.Header{Type: wire.TypePromise, ID: id, ChannelName: ch.name, Name: command},
		Body:   body,
	}); err != nil {
		c.removePendingCall(id)
		return nil, err
	}

	select {
	case res := <-result:
		return res.value, res.err
	case <-ctx.Done():
		if c.removePendingCall(id) {
			c.sendCancel(id)
		}
		return nil, canceledErr(ctx.Err())
	}
}

// Listen sends an EventListen request (or reuses an existing one for the
// same command/arg) and returns a channel of decoded event payloads. The
// channel closes when ctx is canceled; the underlying wire subscription is
// torn down with EventDispose once its last local listener goes away.
func (ch *Channel) Listen(ctx context.Context, event string, arg any) (<-chan any, error) {
	if err := ch.client.whenReady(ctx); err != nil {
		return nil, canceledErr(err)
	}

	c := ch.client
	key, err := subscriptionKey(ch.name, event, arg)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, ErrChannelDisposed
	}

	entry, exists := c.subsByKey[key]
	if !exists {
		entry = &subscriptionEntry{
			id:          c.nextID.Add(1),
			broadcaster: broadcast.NewMemoryBroadcaster[any](c.eventBuffer),
		}
		c.subsByKey[key] = entry
		c.subsByID[entry.id] = entry
	}
	entry.refCount++
	id := entry.id
	c.mu.Unlock()

	if !exists {
		body, err := wire.Wrap(arg)
		if err != nil {
			c.forgetSubscription(key, entry)
			return nil, err
		}
		if err := c.send(wire.Frame{
			Header: wire.Header{Type: wire.TypeEventListen, ID: id, ChannelName: ch.name, Name: event},
			Body:   body,
		}); err != nil {
			c.forgetSubscription(key, entry)
			return nil, err
		}
	}

	sub := entry.broadcaster.Subscribe(ctx)
	out := make(chan any)

	go func() {
		defer close(out)
		for msg := range sub.Receive() {
			select {
			case out <- msg.Data:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		<-ctx.Done()
		c.forgetSubscription(key, entry)
	}()

	return out, nil
}

func (c *ChannelClient) forgetSubscription(key string, entry *subscriptionEntry) {
	c.mu.Lock()
	entry.refCount--
	last := entry.refCount <= 0
	if last {
		delete(c.subsByKey, key)
		delete(c.subsByID, entry.id)
	}
	c.mu.Unlock()

	if !last {
		return
	}

	entry.broadcaster.Close()
	if err := c.send(wire.Frame{Header: wire.Header{Type: wire.TypeEventDispose, ID: entry.id}}); err != nil {
		c.logger.Error("channel: send event dispose", logger.Error(err))
	}
}

// canceledErr wraps a context error so callers can match either the
// package sentinel or the underlying context error.
func canceledErr(err error) error {
	return fmt.Errorf("%w: %w", ErrCanceled, err)
}

func subscriptionKey(channelName, event string, arg any) (string, error) {
	argJSON, err := json.Marshal(arg)
	if err != nil {
		return "", fmt.Errorf("channel: marshal listen arg: %w", err)
	}
	return channelName + "\x00" + event + "\x00" + string(argJSON), nil
}
