package channel

import (
	"errors"
	"fmt"
)

// ErrChannelDisposed is returned by ChannelServer/ChannelClient operations
// invoked after Dispose.
var ErrChannelDisposed = errors.New("channel: disposed")

// ErrCanceled marks a call or subscription abandoned on the caller's side
// before the server responded: the context expired before the request was
// sent, while waiting for the peer's Initialize, or while waiting for the
// response. It wraps the underlying context error, so both
// errors.Is(err, ErrCanceled) and errors.Is(err, context.Canceled) hold.
var ErrCanceled = errors.New("channel: canceled")

// Error is a structured remote error: a registered ServerChannel handler
// returns one of these to control exactly what a caller observes as
// Name/Message/Stack. A context.Canceled or context.DeadlineExceeded error
// is reported with Name set to "Canceled"; any other non-nil error is
// reported with Name set to "Error". Stack is empty in both cases.
type Error struct {
	Name    string
	Message string
	Stack   string
}

// NewError builds a structured Error with the given name and message.
func NewError(name, message string) *Error {
	return &Error{Name: name, Message: message}
}

func (e *Error) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// RawError carries an arbitrary, non-structured payload across the wire as
// a PromiseErrorObj frame instead of a PromiseError frame. Use it when a
// handler needs to propagate a domain-specific error shape verbatim.
type RawError struct {
	Payload any
}

func (e *RawError) Error() string {
	return fmt.Sprintf("channel: raw error: %v", e.Payload)
}
