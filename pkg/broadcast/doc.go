// Package broadcast provides generic in-memory publish/subscribe: one
// Broadcaster fans each message out to every active Subscriber.
//
// core/channel uses it to multiplex a single wire event subscription
// across N local listeners, and core/ipc uses it for connection-change
// wakeups. Both want the same semantics: late subscribers miss earlier
// messages, and a slow subscriber drops messages instead of stalling the
// broadcast.
//
//	b := broadcast.NewMemoryBroadcaster[int](16)
//	sub := b.Subscribe(ctx)
//	go func() {
//		for msg := range sub.Receive() {
//			handle(msg.Data)
//		}
//	}()
//	_ = b.Broadcast(ctx, broadcast.Message[int]{Data: 42})
//
// A subscription ends when its context is canceled, when Close is called
// on it, or when the Broadcaster itself closes; in every case the
// Receive channel is closed so range loops terminate.
//
// # Error Handling
//
// The in-memory implementation never fails: Broadcast on a closed
// broadcaster is a no-op and Close is idempotent. ErrBroadcasterClosed
// and ErrSubscriberClosed exist for alternative implementations that
// need to report these conditions.
package broadcast
