package channel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dmitrymomot/ipc/core/logger"
	"github.com/dmitrymomot/ipc/core/transport"
	"github.com/dmitrymomot/ipc/core/wire"
)

// DefaultPendingTimeout is how long a Promise request for an unregistered
// channel waits before the server gives up on it. Only Promise requests
// time out; a late EventListen is held until the channel registers or the
// server disposes, matching the asymmetry in the design this package
// implements.
const DefaultPendingTimeout = 1000 * time.Millisecond

// ServerOption configures a ChannelServer.
type ServerOption func(*ChannelServer)

// WithPendingTimeout overrides DefaultPendingTimeout.
func WithPendingTimeout(d time.Duration) ServerOption {
	return func(s *ChannelServer) { s.pendingTimeout = d }
}

// WithServerLogger attaches a logger. The zero value logs nothing.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *ChannelServer) { s.logger = l }
}

// WithMaxConcurrentCalls bounds how many Call handlers may run
// concurrently for this server. Zero (the default) means unbounded.
// Listen subscriptions are not counted against the bound.
func WithMaxConcurrentCalls(n int64) ServerOption {
	return func(s *ChannelServer) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(n)
		}
	}
}

type pendingRequest struct {
	frame wire.Frame
	timer *time.Timer
}

// ChannelServer demultiplexes Promise/PromiseCancel/EventListen/EventDispose
// frames arriving on a transport.Protocol to registered ServerChannels, and
// writes back Initialize/PromiseSuccess/PromiseError/PromiseErrorObj/
// EventFire frames.
type ChannelServer struct {
	proto          transport.Protocol
	peer           PeerContext
	pendingTimeout time.Duration
	logger         *slog.Logger
	sem            *semaphore.Weighted

	mu       sync.Mutex
	channels map[string]ServerChannel
	pending  map[string][]pendingRequest
	active   map[uint32]context.CancelFunc
	disposed bool

	unsubscribe func()

	processed atomic.Uint64
	failed    atomic.Uint64
}

// NewChannelServer constructs a ChannelServer over proto, announces itself
// with an Initialize frame, and begins dispatching inbound frames.
func NewChannelServer(proto transport.Protocol, peer PeerContext, opts ...ServerOption) *ChannelServer {
	s := &ChannelServer{
		proto:          proto,
		peer:           peer,
		pendingTimeout: DefaultPendingTimeout,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		channels:       make(map[string]ServerChannel),
		pending:        make(map[string][]pendingRequest),
		active:         make(map[uint32]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.unsubscribe = proto.OnMessage(s.onMessage)
	s.sendInitialize()

	return s
}

func (s *ChannelServer) sendInitialize() {
	data, err := wire.EncodeFrame(wire.Frame{Header: wire.Header{Type: wire.TypeInitialize}})
	if err != nil {
		s.logger.Error("channel: encode initialize", logger.Error(err))
		return
	}
	if err := s.proto.Send(data); err != nil {
		s.logger.Error("channel: send initialize", logger.Error(err))
	}
}

// RegisterChannel binds name to ch. Any requests that arrived for name
// before registration are drained and dispatched in arrival order.
func (s *ChannelServer) RegisterChannel(name string, ch ServerChannel) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.channels[name] = ch
	queued := s.pending[name]
	delete(s.pending, name)
	s.mu.Unlock()

	if len(queued) == 0 {
		return
	}

	go func() {
		for _, pr := range queued {
			if pr.timer != nil {
				pr.timer.Stop()
			}
			s.dispatch(pr.frame)
		}
	}()
}

// GetServerChannel returns the channel registered under name, if any.
func (s *ChannelServer) GetServerChannel(name string) (ServerChannel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[name]
	return ch, ok
}

// Stats returns a snapshot of server activity.
func (s *ChannelServer) Stats() Stats {
	s.mu.Lock()
	active := len(s.active)
	pending := 0
	for _, q := range s.pending {
		pending += len(q)
	}
	s.mu.Unlock()

	return Stats{
		RequestsProcessed: s.processed.Load(),
		RequestsFailed:    s.failed.Load(),
		ActiveRequests:    active,
		PendingRequests:   pending,
	}
}

func (s *ChannelServer) onMessage(data []byte) {
	frame, err := wire.DecodeFrame(data)
	if err != nil {
		s.logger.Error("channel: decode frame", logger.Error(err))
		return
	}
	s.dispatch(frame)
}

func (s *ChannelServer) dispatch(f wire.Frame) {
	switch f.Header.Type {
	case wire.TypePromise:
		s.handlePromise(f)
	case wire.TypePromiseCancel:
		s.handleCancelOrDispose(f.Header.ID)
	case wire.TypeEventListen:
		s.handleEventListen(f)
	case wire.TypeEventDispose:
		s.handleCancelOrDispose(f.Header.ID)
	default:
		s.logger.Warn("channel: unexpected frame type", "type", f.Header.Type.String())
	}
}

func (s *ChannelServer) lookupOrQueue(f wire.Frame) (ServerChannel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return nil, false
	}

	ch, ok := s.channels[f.Header.ChannelName]
	if ok {
		return ch, true
	}

	var timer *time.Timer
	if f.Header.Type == wire.TypePromise {
		id := f.Header.ID
		timer = time.AfterFunc(s.pendingTimeout, func() { s.timeoutPending(f.Header.ChannelName, id) })
	}
	s.pending[f.Header.ChannelName] = append(s.pending[f.Header.ChannelName], pendingRequest{frame: f, timer: timer})
	return nil, false
}

func (s *ChannelServer) timeoutPending(channelName string, id uint32) {
	s.mu.Lock()
	queue := s.pending[channelName]
	kept := queue[:0]
	var timedOut bool
	for _, pr := range queue {
		if pr.frame.Header.ID == id {
			timedOut = true
			continue
		}
		kept = append(kept, pr)
	}
	if len(kept) == 0 {
		delete(s.pending, channelName)
	} else {
		s.pending[channelName] = kept
	}
	s.mu.Unlock()

	if timedOut {
		s.sendPromiseError(id, NewError("Unknown channel",
			fmt.Sprintf("Channel '%s' timed out after %s", channelName, s.pendingTimeout)))
		s.failed.Add(1)
	}
}

func (s *ChannelServer) handlePromise(f wire.Frame) {
	ch, ok := s.lookupOrQueue(f)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.active[f.Header.ID] = cancel
	s.mu.Unlock()

	go s.runCall(ctx, cancel, f, ch)
}

func (s *ChannelServer) runCall(ctx context.Context, cancel context.CancelFunc, f wire.Frame, ch ServerChannel) {
	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.active, f.Header.ID)
		s.mu.Unlock()
	}()

	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			s.sendErrorFor(f.Header.ID, ctx.Err())
			return
		}
		defer s.sem.Release(1)
	}

	defer func() {
		if r := recover(); r != nil {
			s.failed.Add(1)
			s.sendPromiseError(f.Header.ID, NewError("InternalError", fmt.Sprintf("panic: %v", r)))
		}
	}()

	arg, _ := f.Body.(wire.Object)
	result, err := ch.Call(ctx, s.peer, f.Header.Name, arg)
	if err != nil {
		s.sendErrorFor(f.Header.ID, err)
		return
	}

	s.processed.Add(1)
	s.sendSuccess(f.Header.ID, result)
}

func (s *ChannelServer) sendErrorFor(id uint32, err error) {
	s.failed.Add(1)

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.sendPromiseError(id, NewError("Canceled", "request canceled"))
		return
	}

	var raw *RawError
	if errors.As(err, &raw) {
		s.sendPromiseErrorObj(id, raw.Payload)
		return
	}

	var structured *Error
	if errors.As(err, &structured) {
		s.sendPromiseError(id, structured)
		return
	}

	s.sendPromiseError(id, NewError("Error", err.Error()))
}

func (s *ChannelServer) handleEventListen(f wire.Frame) {
	ch, ok := s.lookupOrQueue(f)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.active[f.Header.ID] = cancel
	s.mu.Unlock()

	arg, _ := f.Body.(wire.Object)
	stream, err := func() (stream <-chan any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = NewError("InternalError", fmt.Sprintf("panic: %v", r))
			}
		}()
		return ch.Listen(ctx, s.peer, f.Header.Name, arg)
	}()
	if err != nil {
		cancel()
		s.mu.Lock()
		delete(s.active, f.Header.ID)
		s.mu.Unlock()
		s.sendErrorFor(f.Header.ID, err)
		return
	}

	go s.forwardEvents(ctx, cancel, f.Header.ID, stream)
}

func (s *ChannelServer) forwardEvents(ctx context.Context, cancel context.CancelFunc, id uint32, stream <-chan any) {
	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.active, id)
		s.mu.Unlock()
	}()

	for {
		select {
		case v, ok := <-stream:
			if !ok {
				return
			}
			s.sendEventFire(id, v)
		case <-ctx.Done():
			return
		}
	}
}

func (s *ChannelServer) handleCancelOrDispose(id uint32) {
	s.mu.Lock()
	cancel, ok := s.active[id]
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func (s *ChannelServer) send(f wire.Frame) {
	data, err := wire.EncodeFrame(f)
	if err != nil {
		s.logger.Error("channel: encode frame", "type", f.Header.Type.String(), logger.Error(err))
		return
	}
	if err := s.proto.Send(data); err != nil {
		s.logger.Error("channel: send frame", "type", f.Header.Type.String(), logger.Error(err))
	}
}

func (s *ChannelServer) sendSuccess(id uint32, result any) {
	body, err := wire.Wrap(result)
	if err != nil {
		s.sendPromiseError(id, NewError("InternalError", fmt.Sprintf("encode result: %v", err)))
		return
	}
	s.send(wire.Frame{Header: wire.Header{Type: wire.TypePromiseSuccess, ID: id}, Body: body})
}

func (s *ChannelServer) sendPromiseError(id uint32, e *Error) {
	s.send(wire.Frame{
		Header: wire.Header{Type: wire.TypePromiseError, ID: id},
		Body: map[string]string{
			"name":    e.Name,
			"message": e.Message,
			"stack":   e.Stack,
		},
	})
}

func (s *ChannelServer) sendPromiseErrorObj(id uint32, payload any) {
	body, err := wire.Wrap(payload)
	if err != nil {
		s.sendPromiseError(id, NewError("InternalError", fmt.Sprintf("encode error payload: %v", err)))
		return
	}
	s.send(wire.Frame{Header: wire.Header{Type: wire.TypePromiseErrorObj, ID: id}, Body: body})
}

func (s *ChannelServer) sendEventFire(id uint32, data any) {
	body, err := wire.Wrap(data)
	if err != nil {
		s.logger.Error("channel: encode event payload", logger.Error(err))
		return
	}
	s.send(wire.Frame{Header: wire.Header{Type: wire.TypeEventFire, ID: id}, Body: body})
}

// Dispose cancels every active call/subscription, stops pending timers, and
// unsubscribes from the transport. Safe to call more than once.
func (s *ChannelServer) Dispose() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true
	active := s.active
	pending := s.pending
	s.active = make(map[uint32]context.CancelFunc)
	s.pending = make(map[string][]pendingRequest)
	s.mu.Unlock()

	if s.unsubscribe != nil {
		s.unsubscribe()
	}

	for _, cancel := range active {
		cancel()
	}
	for _, queue := range pending {
		for _, pr := range queue {
			if pr.timer != nil {
				pr.timer.Stop()
			}
		}
	}

	return nil
}
