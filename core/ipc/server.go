package ipc

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/dmitrymomot/ipc/core/channel"
	"github.com/dmitrymomot/ipc/core/config"
	"github.com/dmitrymomot/ipc/core/logger"
	"github.com/dmitrymomot/ipc/core/transport"
	"github.com/dmitrymomot/ipc/pkg/broadcast"
)

// Connection bundles one peer's connection context with the
// ChannelServer/ChannelClient pair that share its transport.
type Connection struct {
	ID            uint64
	Ctx           channel.PeerContext
	ChannelServer *channel.ChannelServer
	ChannelClient *channel.ChannelClient

	proto transport.Protocol
}

// Dispose tears down both halves of the connection, aggregating any
// disposal errors.
func (c *Connection) Dispose() error {
	var result *multierror.Error
	if err := c.ChannelServer.Dispose(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.ChannelClient.Dispose(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// ServerOption configures an IPCServer.
type ServerOption func(*IPCServer)

// WithLogger attaches a logger. The zero value logs nothing.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *IPCServer) { s.logger = l }
}

// WithChannelServerOptions passes through options to every ChannelServer
// the hub constructs for a new connection.
func WithChannelServerOptions(opts ...channel.ServerOption) ServerOption {
	return func(s *IPCServer) { s.serverOpts = append(s.serverOpts, opts...) }
}

// WithChannelClientOptions passes through options to every ChannelClient
// the hub constructs for a new connection.
func WithChannelClientOptions(opts ...channel.ClientOption) ServerOption {
	return func(s *IPCServer) { s.clientOpts = append(s.clientOpts, opts...) }
}

// WithHandshakeTimeout bounds how long HandleConnection waits for the
// peer's handshake message before giving up on the connection. Zero (the
// default) means no extra bound beyond the caller's ctx.
func WithHandshakeTimeout(d time.Duration) ServerOption {
	return func(s *IPCServer) { s.handshakeTimeout = d }
}

// WithTunables applies environment-loaded tunables to the hub: the
// handshake read timeout, plus the pending timeout and event buffer size
// for every ChannelServer/ChannelClient pair the hub constructs.
//
//	var tun config.Tunables
//	config.MustLoad(&tun)
//	hub := ipc.NewIPCServer(ipc.WithTunables(tun))
func WithTunables(tun config.Tunables) ServerOption {
	return func(s *IPCServer) {
		if tun.HandshakeReadTimeout > 0 {
			s.handshakeTimeout = tun.HandshakeReadTimeout
		}
		if tun.PendingTimeout > 0 {
			s.serverOpts = append(s.serverOpts, channel.WithPendingTimeout(tun.PendingTimeout))
		}
		if tun.ChannelBufferSize > 0 {
			s.clientOpts = append(s.clientOpts, channel.WithEventBufferSize(tun.ChannelBufferSize))
		}
	}
}

// IPCServer is a hub over many peer connections. It routes getChannel
// calls to one connected peer through a pluggable ClientRouter.
type IPCServer struct {
	logger           *slog.Logger
	serverOpts       []channel.ServerOption
	clientOpts       []channel.ClientOption
	handshakeTimeout time.Duration

	mu          sync.Mutex
	connections map[uint64]*Connection
	channels    map[string]channel.ServerChannel
	nextConnID  uint64

	changed *broadcast.MemoryBroadcaster[struct{}]
}

// NewIPCServer constructs an empty hub.
func NewIPCServer(opts ...ServerOption) *IPCServer {
	s := &IPCServer{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		connections: make(map[uint64]*Connection),
		channels:    make(map[string]channel.ServerChannel),
		changed:     broadcast.NewMemoryBroadcaster[struct{}](8),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleConnection wires up a newly accepted transport: it reads the
// peer's handshake context as the first inbound message, builds a
// ChannelServer/ChannelClient pair, registers every hub-level channel on
// the new ChannelServer, and adds the connection to the hub. ctx governs
// the connection's lifetime: when ctx is done, the connection is disposed
// and removed.
func (s *IPCServer) HandleConnection(ctx context.Context, proto transport.Protocol) (*Connection, error) {
	handshakeCtx := ctx
	if s.handshakeTimeout > 0 {
		var cancel context.CancelFunc
		handshakeCtx, cancel = context.WithTimeout(ctx, s.handshakeTimeout)
		defer cancel()
	}

	result := make(chan *Connection, 1)
	var once sync.Once

	// The entire handshake-to-wiring sequence runs synchronously inside
	// this single dispatch of the handshake message, on whatever
	// goroutine the transport uses to deliver messages one at a time.
	// That is what guarantees no frame sent immediately after the
	// handshake (notably the peer's own Initialize) can ever be
	// delivered into a gap where neither the temporary handler nor the
	// real ChannelServer/ChannelClient are registered yet.
	unsubscribe := proto.OnMessage(func(data []byte) {
		once.Do(func() {
			peerCtx, err := decodeHandshake(data)
			if err != nil {
				s.logger.Error("ipc: decode handshake", logger.Error(err))
				peerCtx = nil
			}

			cs := channel.NewChannelServer(proto, peerCtx, s.serverOpts...)
			cc := channel.NewChannelClient(proto, s.clientOpts...)

			s.mu.Lock()
			for name, ch := range s.channels {
				cs.RegisterChannel(name, ch)
			}
			id := s.nextConnID
			s.nextConnID++
			conn := &Connection{ID: id, Ctx: peerCtx, ChannelServer: cs, ChannelClient: cc, proto: proto}
			s.connections[id] = conn
			s.mu.Unlock()

			_ = s.changed.Broadcast(context.Background(), broadcast.Message[struct{}]{})

			go func() {
				<-ctx.Done()
				s.removeConnection(id)
			}()

			result <- conn
		})
	})

	select {
	case conn := <-result:
		// The temporary handshake handler is spent; only the
		// connection's ChannelServer/ChannelClient listen from here on.
		unsubscribe()
		return conn, nil
	case <-handshakeCtx.Done():
		unsubscribe()
		return nil, handshakeCtx.Err()
	}
}

func (s *IPCServer) removeConnection(id uint64) {
	s.mu.Lock()
	conn, ok := s.connections[id]
	delete(s.connections, id)
	s.mu.Unlock()

	if !ok {
		return
	}
	if err := conn.Dispose(); err != nil {
		s.logger.Error("ipc: dispose connection", logger.Error(err))
	}
	// The change broadcast fires on join only; routers parked in
	// WaitForChange wake for new peers, never for departures.
}

// RegisterChannel updates the hub-level registry and forwards the
// registration to every currently attached ChannelServer.
func (s *IPCServer) RegisterChannel(name string, ch channel.ServerChannel) {
	s.mu.Lock()
	s.channels[name] = ch
	conns := make([]*Connection, 0, len(s.connections))
	for _, conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.ChannelServer.RegisterChannel(name, ch)
	}
}

// Connections returns a snapshot of currently attached connections.
func (s *IPCServer) Connections() []*Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns := make([]*Connection, 0, len(s.connections))
	for _, conn := range s.connections {
		conns = append(conns, conn)
	}
	return conns
}

// WaitForChange returns a channel that fires once, the next time a
// connection joins the hub (or ctx is canceled, in which case the
// returned channel is never sent to and the caller should also select on
// ctx.Done()).
func (s *IPCServer) WaitForChange(ctx context.Context) <-chan struct{} {
	sub := s.changed.Subscribe(ctx)
	out := make(chan struct{}, 1)
	go func() {
		if _, ok := <-sub.Receive(); ok {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out
}

// GetChannel returns a channel proxy for name, routed lazily through
// router the first time the proxy is used. See DelayedChannel.
func (s *IPCServer) GetChannel(name string, router ClientRouter) *DelayedChannel {
	return NewDelayedChannel(func(ctx context.Context) (*channel.Channel, error) {
		conn, err := router.Route(ctx, s)
		if err != nil {
			return nil, err
		}
		return conn.ChannelClient.GetChannel(name), nil
	})
}

// Dispose tears down every connection.
func (s *IPCServer) Dispose() error {
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.connections))
	for _, conn := range s.connections {
		conns = append(conns, conn)
	}
	s.connections = make(map[uint64]*Connection)
	s.mu.Unlock()

	var result *multierror.Error
	for _, conn := range conns {
		if err := conn.Dispose(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.changed.Close()
	return result.ErrorOrNil()
}
