// Package ipc builds a multi-peer hub on top of core/channel: IPCServer
// accepts many connections, each wrapped in its own ChannelServer/
// ChannelClient pair, and routes getChannel calls to one connected peer
// through a pluggable ClientRouter. IPCClient is the symmetric endpoint a
// peer uses to join such a hub.
//
// DelayedChannel and NextTickChannel adapt a channel that isn't
// synchronously available yet - because routing hasn't resolved, or
// because the transport needs one tick to finish same-tick setup - into
// something callers can use immediately.
package ipc
