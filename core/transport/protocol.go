package transport

// Protocol is the external collaborator every ChannelServer and
// ChannelClient is built on: a duplex channel that reliably delivers whole
// messages in send order. It does not authenticate peers, retry failed
// sends, or guarantee delivery beyond what the underlying pipe provides.
type Protocol interface {
	// Send delivers one discrete message to the peer. Implementations
	// must not let a failed send escape the IPC layer - callers treat a
	// non-nil error as "assume the peer will recover or be torn down",
	// never as reason to panic or retry.
	Send(data []byte) error

	// OnMessage registers a handler invoked once per inbound message, in
	// the order the peer sent them. The returned func removes the
	// handler; it is safe to call more than once.
	OnMessage(handler func(data []byte)) (unsubscribe func())
}
