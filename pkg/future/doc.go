// Package future provides a generic single-value future: a computation
// started once whose result (a value of any type T, or an error) can be
// awaited by any number of callers. It backs core/ipc.DelayedChannel,
// which needs to hand callers a channel facade before the routing
// decision that picks the real *channel.Channel has completed.
package future
