package logger

import "log/slog"

// ============================================================================
// IPC
// ============================================================================

// ChannelName creates an attribute for a channel identifier.
func ChannelName(name string) slog.Attr {
	return slog.String("channel", name)
}

// EventName creates an attribute for a subscribed event name.
func EventName(name string) slog.Attr {
	return slog.String("event_name", name)
}

// ConnectionID creates an attribute for a hub connection id.
func ConnectionID(id uint64) slog.Attr {
	return slog.Uint64("connection_id", id)
}

// RequestSeq creates an attribute for a wire request id.
func RequestSeq(id uint32) slog.Attr {
	return slog.Uint64("request_id", uint64(id))
}
