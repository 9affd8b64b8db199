package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ipc/pkg/broadcast"
)

func TestMemoryBroadcaster_FanOut(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](4)
	defer b.Close()

	ctx := context.Background()
	sub1 := b.Subscribe(ctx)
	sub2 := b.Subscribe(ctx)
	defer sub1.Close()
	defer sub2.Close()

	require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 1}))
	require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 2}))

	for _, sub := range []broadcast.Subscriber[int]{sub1, sub2} {
		require.Equal(t, 1, (<-sub.Receive()).Data)
		require.Equal(t, 2, (<-sub.Receive()).Data)
	}
}

func TestMemoryBroadcaster_SlowSubscriberDropsRatherThanBlocks(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](1)
	defer b.Close()

	ctx := context.Background()
	sub := b.Subscribe(ctx)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			_ = b.Broadcast(ctx, broadcast.Message[int]{Data: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
}

func TestMemoryBroadcaster_UnsubscribeOnContextCancel(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](1)
	defer b.Close()

	subCtx, cancel := context.WithCancel(context.Background())
	sub := b.Subscribe(subCtx)
	cancel()

	select {
	case _, ok := <-sub.Receive():
		require.False(t, ok, "channel should be closed after context cancellation")
	case <-time.After(time.Second):
		t.Fatal("subscriber was not cleaned up")
	}
}

func TestMemoryBroadcaster_CloseIsIdempotentAndClosesSubscribers(t *testing.T) {
	t.Parallel()

	b := broadcast.NewMemoryBroadcaster[int](1)
	sub := b.Subscribe(context.Background())

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, ok := <-sub.Receive()
	require.False(t, ok)
}
