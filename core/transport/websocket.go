package transport

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// WebSocketOption configures a WebSocketProtocol.
type WebSocketOption func(*WebSocketProtocol)

// WithOnError registers a callback invoked when the read pump's underlying
// connection errors out (including a normal close). After onError fires,
// the protocol is closed and no further messages will be dispatched.
func WithOnError(fn func(error)) WebSocketOption {
	return func(p *WebSocketProtocol) {
		p.onError = fn
	}
}

// WebSocketProtocol adapts a *websocket.Conn into a Protocol using the
// usual read-pump/write-serialization split: one goroutine owns reads
// (gorilla connections are not safe for concurrent reads), writes are
// serialized under a mutex (nor for concurrent writes).
type WebSocketProtocol struct {
	conn    *websocket.Conn
	onError func(error)

	writeMu sync.Mutex

	handlersMu sync.Mutex
	handlers   map[int]func([]byte)
	nextID     int
	pending    [][]byte
	draining   bool

	closed atomic.Bool
	stop   chan struct{}
}

// maxPendingInbound bounds how many inbound messages a protocol holds for
// a handler that hasn't registered yet (the window between accepting a
// connection and wiring up its ChannelServer/ChannelClient). Messages
// beyond the bound are dropped.
const maxPendingInbound = 64

// NewWebSocketProtocol wraps conn and starts its read pump. Close the
// returned protocol to stop the pump and close the connection.
func NewWebSocketProtocol(conn *websocket.Conn, opts ...WebSocketOption) *WebSocketProtocol {
	p := &WebSocketProtocol{
		conn:     conn,
		handlers: make(map[int]func([]byte)),
		stop:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	go p.readPump()

	return p
}

func (p *WebSocketProtocol) readPump() {
	defer p.Close()

	for {
		msgType, data, err := p.conn.ReadMessage()
		if err != nil {
			if p.onError != nil {
				p.onError(err)
			}
			return
		}

		if msgType != websocket.BinaryMessage && msgType != websocket.TextMessage {
			continue
		}

		p.dispatch(data)
	}
}

func (p *WebSocketProtocol) dispatch(data []byte) {
	p.handlersMu.Lock()
	// Buffer while no handler is attached, or while a new handler is
	// still draining the buffer; delivering around the drain would
	// reorder messages.
	if len(p.handlers) == 0 || p.draining {
		if len(p.pending) < maxPendingInbound {
			p.pending = append(p.pending, data)
		}
		p.handlersMu.Unlock()
		return
	}
	handlers := make([]func([]byte), 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.handlersMu.Unlock()

	for _, h := range handlers {
		h(data)
	}
}

// Send writes data as a single binary WebSocket message.
func (p *WebSocketProtocol) Send(data []byte) error {
	if p.closed.Load() {
		return ErrPipeClosed
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteMessage(websocket.BinaryMessage, data)
}

// OnMessage registers a handler for inbound messages. The first handler
// to register also receives, in arrival order, any messages that were
// buffered while no handler was attached.
func (p *WebSocketProtocol) OnMessage(handler func(data []byte)) func() {
	p.handlersMu.Lock()
	id := p.nextID
	p.nextID++
	p.handlers[id] = handler
	drain := len(p.handlers) == 1 && len(p.pending) > 0 && !p.draining
	if drain {
		p.draining = true
	}
	p.handlersMu.Unlock()

	if drain {
		p.drainPending()
	}

	return func() {
		p.handlersMu.Lock()
		delete(p.handlers, id)
		p.handlersMu.Unlock()
	}
}

func (p *WebSocketProtocol) drainPending() {
	for {
		p.handlersMu.Lock()
		if len(p.pending) == 0 {
			p.draining = false
			p.handlersMu.Unlock()
			return
		}
		data := p.pending[0]
		p.pending = p.pending[1:]
		handlers := make([]func([]byte), 0, len(p.handlers))
		for _, h := range p.handlers {
			handlers = append(handlers, h)
		}
		p.handlersMu.Unlock()

		for _, h := range handlers {
			h(data)
		}
	}
}

// Close stops the read pump and closes the underlying connection. Safe to
// call more than once.
func (p *WebSocketProtocol) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(p.stop)
	return p.conn.Close()
}
