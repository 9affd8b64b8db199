// Package channel implements the ChannelServer/ChannelClient pair that
// multiplex named request/response commands and event subscriptions over a
// single transport.Protocol.
//
// A ServerChannel is what a registered service implements. ChannelServer
// demultiplexes inbound frames to registered channels, gating requests
// against not-yet-registered channels in a pending queue. ChannelClient
// allocates request ids, sends requests, and correlates responses back to
// callers.
package channel
