// Package wire implements the tag-length-value codec shared by every frame
// exchanged between a ChannelServer and a ChannelClient.
//
// Each transport message is two self-describing values concatenated: a
// header value (always an Array) and a body value (the request argument or
// response payload). Each value starts with a one-byte type tag:
//
//	0 Undefined  (none)
//	1 String     4-byte big-endian length N, N UTF-8 bytes
//	2 Buffer     4-byte big-endian length N, N raw bytes
//	3 VSBuffer   4-byte big-endian length N, N raw bytes
//	4 Array      4-byte big-endian length N, then N encoded values
//	5 Object     4-byte big-endian length N, N bytes of JSON text
//
// Numeric and boolean scalars, and any plain record or nested structure,
// are encoded through the Object case. The split between header and body
// lets a receiver route a frame (id, channel, command name) without
// touching the possibly large, possibly binary payload.
package wire
