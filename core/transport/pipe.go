package transport

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrPipeClosed is returned by Send once either end of a Pipe has closed.
var ErrPipeClosed = errors.New("transport: pipe closed")

// DefaultPipeBuffer is the default inbox buffer per Pipe endpoint.
const DefaultPipeBuffer = 64

// MemoryProtocol is an in-memory Protocol endpoint, one half of a Pipe.
// Each endpoint serializes message delivery through a single dispatch
// goroutine, so handlers never run concurrently with each other and need
// no external locking around the state they mutate.
type MemoryProtocol struct {
	peer   *MemoryProtocol
	inbox  chan []byte
	stop   chan struct{}
	closed atomic.Bool

	mu       sync.Mutex
	handlers map[int]func([]byte)
	nextID   int
	pending  [][]byte
	draining bool
}

func newMemoryProtocol(bufferSize int) *MemoryProtocol {
	if bufferSize < 1 {
		bufferSize = DefaultPipeBuffer
	}
	return &MemoryProtocol{
		inbox:    make(chan []byte, bufferSize),
		stop:     make(chan struct{}),
		handlers: make(map[int]func([]byte)),
	}
}

// NewPipe returns two connected MemoryProtocol endpoints: messages sent on
// one are delivered to the other's OnMessage handlers.
func NewPipe(bufferSize int) (a, b *MemoryProtocol) {
	a = newMemoryProtocol(bufferSize)
	b = newMemoryProtocol(bufferSize)
	a.peer = b
	b.peer = a

	go a.loop()
	go b.loop()

	return a, b
}

func (p *MemoryProtocol) loop() {
	for {
		select {
		case data, ok := <-p.inbox:
			if !ok {
				return
			}
			p.dispatch(data)
		case <-p.stop:
			return
		}
	}
}

func (p *MemoryProtocol) dispatch(data []byte) {
	p.mu.Lock()
	// Buffer while no handler is attached, or while a new handler is
	// still draining the buffer; delivering around the drain would
	// reorder messages.
	if len(p.handlers) == 0 || p.draining {
		if len(p.pending) < maxPendingInbound {
			p.pending = append(p.pending, data)
		}
		p.mu.Unlock()
		return
	}
	handlers := make([]func([]byte), 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()

	for _, h := range handlers {
		h(data)
	}
}

// Send delivers data to the peer endpoint's inbox.
func (p *MemoryProtocol) Send(data []byte) error {
	if p.closed.Load() || p.peer.closed.Load() {
		return ErrPipeClosed
	}
	select {
	case p.peer.inbox <- data:
		return nil
	case <-p.peer.stop:
		return ErrPipeClosed
	}
}

// OnMessage registers a handler for messages delivered to this endpoint.
// The first handler to register also receives, in arrival order, any
// messages that were buffered while no handler was attached.
func (p *MemoryProtocol) OnMessage(handler func(data []byte)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.handlers[id] = handler
	drain := len(p.handlers) == 1 && len(p.pending) > 0 && !p.draining
	if drain {
		p.draining = true
	}
	p.mu.Unlock()

	if drain {
		p.drainPending()
	}

	return func() {
		p.mu.Lock()
		delete(p.handlers, id)
		p.mu.Unlock()
	}
}

func (p *MemoryProtocol) drainPending() {
	for {
		p.mu.Lock()
		if len(p.pending) == 0 {
			p.draining = false
			p.mu.Unlock()
			return
		}
		data := p.pending[0]
		p.pending = p.pending[1:]
		handlers := make([]func([]byte), 0, len(p.handlers))
		for _, h := range p.handlers {
			handlers = append(handlers, h)
		}
		p.mu.Unlock()

		for _, h := range handlers {
			h(data)
		}
	}
}

// Close stops this endpoint's dispatch loop. Idempotent.
func (p *MemoryProtocol) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		close(p.stop)
	}
	return nil
}
