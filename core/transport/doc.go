// Package transport defines the duplex, whole-message transport that
// core/channel and core/ipc are built on (MessagePassingProtocol in the
// design), plus two concrete implementations: an in-memory Pipe for tests
// and same-process peers, and a WebSocket adapter for real connections.
//
// A Protocol only has to deliver discrete messages in send order; framing
// below the message boundary, retries, and authentication are the
// transport's problem, not this package's.
package transport
