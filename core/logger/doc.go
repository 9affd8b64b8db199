// Package logger provides slog attribute helpers shared across the
// module: generic attributes (Error, Duration, Component) plus
// IPC-specific ones (ChannelName, ConnectionID, RequestSeq).
//
// Every long-running component takes a *slog.Logger through an option
// and defaults to a no-op logger, so the attribute helpers are the only
// logging surface this package needs:
//
//	log.Error("channel: dispatch failed",
//		logger.ChannelName(name),
//		logger.RequestSeq(id),
//		logger.Error(err),
//	)
//
// Error, Errors and RequestID return the empty slog.Attr for nil/empty
// inputs, which slog drops silently, so call sites stay free of nil
// checks.
package logger
