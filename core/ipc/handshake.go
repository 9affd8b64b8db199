package ipc

import (
	"bytes"

	"github.com/dmitrymomot/ipc/core/transport"
	"github.com/dmitrymomot/ipc/core/wire"
)

// sendHandshake writes peerCtx as a single TLV value - not a full header +
// body frame - matching the one-value handshake a joining peer sends
// before its ChannelServer/ChannelClient exist.
func sendHandshake(proto transport.Protocol, peerCtx any) error {
	wrapped, err := wire.Wrap(peerCtx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := wire.EncodeValue(&buf, wrapped); err != nil {
		return err
	}
	return proto.Send(buf.Bytes())
}

func decodeHandshake(data []byte) (any, error) {
	return wire.DecodeValue(bytes.NewReader(data))
}
