package ipc

import (
	"github.com/hashicorp/go-multierror"

	"github.com/dmitrymomot/ipc/core/channel"
	"github.com/dmitrymomot/ipc/core/transport"
)

// IPCClient is the symmetric endpoint a peer uses to join an IPCServer
// hub: one ChannelClient and one ChannelServer sharing the same
// transport, preceded by a handshake frame carrying the peer's context.
type IPCClient struct {
	ChannelClient *channel.ChannelClient
	ChannelServer *channel.ChannelServer
}

// NewIPCClient sends ctxVal as the connection handshake, then builds the
// ChannelClient/ChannelServer pair over proto. The peer IPCServer is
// expected to consume the handshake before constructing its own
// ChannelServer.
func NewIPCClient(
	proto transport.Protocol,
	ctxVal any,
	serverOpts []channel.ServerOption,
	clientOpts []channel.ClientOption,
) (*IPCClient, error) {
	if err := sendHandshake(proto, ctxVal); err != nil {
		return nil, err
	}

	return &IPCClient{
		ChannelClient: channel.NewChannelClient(proto, clientOpts...),
		ChannelServer: channel.NewChannelServer(proto, ctxVal, serverOpts...),
	}, nil
}

// Dispose tears down both halves, aggregating any disposal errors.
func (c *IPCClient) Dispose() error {
	var result *multierror.Error
	if err := c.ChannelClient.Dispose(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.ChannelServer.Dispose(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
