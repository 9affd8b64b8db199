package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/ipc/core/handler"
	"github.com/dmitrymomot/ipc/core/ipc"
	"github.com/dmitrymomot/ipc/core/logger"
	"github.com/dmitrymomot/ipc/core/response"
	"github.com/dmitrymomot/ipc/core/router"
	"github.com/dmitrymomot/ipc/core/server"
	"github.com/dmitrymomot/ipc/core/transport"
	"github.com/dmitrymomot/ipc/middleware"
)

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger attaches a logger used for the HTTP access log and
// connection lifecycle events. The zero value logs nothing.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithWebSocketOptions passes extra options to the /ipc/connect upgrade.
func WithWebSocketOptions(opts ...response.WebSocketOption) Option {
	return func(g *Gateway) { g.wsOpts = append(g.wsOpts, opts...) }
}

// Gateway exposes an IPC hub over HTTP: a WebSocket endpoint peers dial
// to join the hub, plus JSON debug endpoints reporting hub state.
//
//	GET /ipc/connect     WebSocket upgrade; the connection becomes a hub peer
//	GET /ipc/healthz     liveness plus connection count
//	GET /ipc/connections per-connection context and server stats
type Gateway struct {
	hub    *ipc.IPCServer
	logger *slog.Logger
	wsOpts []response.WebSocketOption
}

// New builds a Gateway over hub.
func New(hub *ipc.IPCServer, opts ...Option) *Gateway {
	g := &Gateway{
		hub:    hub,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Handler builds the routed HTTP handler for the gateway's endpoints.
func (g *Gateway) Handler() http.Handler {
	r := router.New[*router.Context](
		router.WithErrorHandler[*router.Context](response.JSONErrorHandler[*router.Context]),
		router.WithRouterLogger[*router.Context](g.logger),
	)
	r.Use(
		middleware.RequestID[*router.Context](),
		middleware.LoggingWithConfig[*router.Context](middleware.LoggingConfig{
			Logger:    g.logger,
			Component: "gateway",
			// The connect route holds its request open for the life of
			// the peer connection; logging it as a slow request is noise.
			Skip: func(ctx handler.Context) bool {
				return ctx.Request().URL.Path == "/ipc/connect"
			},
		}),
	)

	r.Get("/ipc/healthz", g.healthz)
	r.Get("/ipc/connections", g.connections)
	r.Get("/ipc/connect", g.connect)

	return r
}

// Serve runs the gateway on addr until ctx is canceled, shutting the
// HTTP server down gracefully and disposing the hub on the way out.
func (g *Gateway) Serve(ctx context.Context, addr string, opts ...server.Option) error {
	srv := server.New(addr, append([]server.Option{
		server.WithLogger(g.logger),
		// The connect route blocks for the connection's lifetime; a
		// write timeout would sever every peer after it elapsed.
		server.WithWriteTimeout(0),
		server.WithReadTimeout(0),
	}, opts...)...)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(srv.Run(egCtx, g.Handler()))
	eg.Go(func() error {
		<-egCtx.Done()
		if err := g.hub.Dispose(); err != nil {
			g.logger.Error("gateway: dispose hub", logger.Error(err))
		}
		return nil
	})
	return eg.Wait()
}

type healthzPayload struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

func (g *Gateway) healthz(ctx *router.Context) handler.Response {
	return response.JSON(healthzPayload{
		Status:      "ok",
		Connections: len(g.hub.Connections()),
	})
}

type connectionPayload struct {
	ID                uint64 `json:"id"`
	Ctx               any    `json:"ctx"`
	RequestsProcessed uint64 `json:"requests_processed"`
	RequestsFailed    uint64 `json:"requests_failed"`
	ActiveRequests    int    `json:"active_requests"`
	PendingRequests   int    `json:"pending_requests"`
}

func (g *Gateway) connections(ctx *router.Context) handler.Response {
	conns := g.hub.Connections()
	out := make([]connectionPayload, 0, len(conns))
	for _, conn := range conns {
		stats := conn.ChannelServer.Stats()
		out = append(out, connectionPayload{
			ID:                conn.ID,
			Ctx:               conn.Ctx,
			RequestsProcessed: stats.RequestsProcessed,
			RequestsFailed:    stats.RequestsFailed,
			ActiveRequests:    stats.ActiveRequests,
			PendingRequests:   stats.PendingRequests,
		})
	}
	return response.JSON(out)
}

func (g *Gateway) connect(ctx *router.Context) handler.Response {
	opts := append([]response.WebSocketOption{
		response.WithWSAllowAnyOrigin(),
		response.WithWSErrorHandler(func(ctx context.Context, err error) {
			g.logger.Error("gateway: websocket error", logger.Error(err))
		}),
	}, g.wsOpts...)

	return response.WebSocket(func(reqCtx context.Context, conn *websocket.Conn) error {
		connCtx, cancel := context.WithCancel(reqCtx)
		defer cancel()

		proto := transport.NewWebSocketProtocol(conn, transport.WithOnError(func(error) {
			// Read pump died: peer went away or the conn broke. Cancel
			// so the hub disposes and removes the connection.
			cancel()
		}))
		defer proto.Close()

		hubConn, err := g.hub.HandleConnection(connCtx, proto)
		if err != nil {
			return err
		}

		g.logger.Info("gateway: peer connected", logger.ConnectionID(hubConn.ID))
		<-connCtx.Done()
		g.logger.Info("gateway: peer disconnected", logger.ConnectionID(hubConn.ID))
		return nil
	}, opts...)
}
