package channel_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ipc/core/channel"
	"github.com/dmitrymomot/ipc/core/transport"
	"github.com/dmitrymomot/ipc/core/wire"
)

type greeterChannel struct{}

func (greeterChannel) Call(ctx context.Context, _ channel.PeerContext, name string, arg wire.Object) (any, error) {
	var who string
	_ = arg.Decode(&who)
	switch name {
	case "greet":
		return "hello, " + who, nil
	case "boom":
		return nil, channel.NewError("Boom", "exploded")
	default:
		return nil, channel.NewError("UnknownCommand", name)
	}
}

func (greeterChannel) Listen(ctx context.Context, _ channel.PeerContext, name string, arg wire.Object) (<-chan any, error) {
	out := make(chan any, 8)
	go func() {
		defer close(out)
		// Hold the first emission back long enough for every local
		// subscriber in the tests to attach to the broadcaster.
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return
		}
		for i := 0; i < 5; i++ {
			select {
			case out <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func newLinkedPair(t *testing.T) (*channel.ChannelServer, *channel.ChannelClient) {
	t.Helper()
	a, b := transport.NewPipe(16)
	t.Cleanup(func() { a.Close(); b.Close() })

	server := channel.NewChannelServer(a, "peer-1")
	t.Cleanup(func() { server.Dispose() })
	server.RegisterChannel("greeter", greeterChannel{})

	client := channel.NewChannelClient(b)
	t.Cleanup(func() { client.Dispose() })

	return server, client
}

func TestChannelClient_CallSuccess(t *testing.T) {
	t.Parallel()

	_, client := newLinkedPair(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ch := client.GetChannel("greeter")
	value, err := ch.Call(ctx, "greet", "world")
	require.NoError(t, err)

	obj, ok := value.(wire.Object)
	require.True(t, ok)
	var s string
	require.NoError(t, obj.Decode(&s))
	require.Equal(t, "hello, world", s)
}

func TestChannelClient_CallStructuredError(t *testing.T) {
	t.Parallel()

	_, client := newLinkedPair(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ch := client.GetChannel("greeter")
	_, err := ch.Call(ctx, "boom", nil)
	require.Error(t, err)

	var structured *channel.Error
	require.ErrorAs(t, err, &structured)
	require.Equal(t, "Boom", structured.Name)
}

func TestChannelClient_CallCanceledBeforeResponse(t *testing.T) {
	t.Parallel()

	a, b := transport.NewPipe(16)
	defer a.Close()
	defer b.Close()

	block := make(chan struct{})
	server := channel.NewChannelServer(a, nil)
	defer server.Dispose()
	server.RegisterChannel("svc", funcChannel{
		call: func(ctx context.Context, _ channel.PeerContext, name string, arg wire.Object) (any, error) {
			<-block
			return "late", nil
		},
	})

	client := channel.NewChannelClient(b)
	defer client.Dispose()

	ctx, cancel := context.WithCancel(context.Background())
	ch := client.GetChannel("svc")

	done := make(chan error, 1)
	go func() {
		_, err := ch.Call(ctx, "slow", nil)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	close(block)

	select {
	case err := <-done:
		require.ErrorIs(t, err, channel.ErrCanceled)
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("call did not return after cancel")
	}
}

func TestChannelClient_CallWithDoneContextSendsNothing(t *testing.T) {
	t.Parallel()

	a, b := transport.NewPipe(16)
	defer a.Close()
	defer b.Close()

	sent := make(chan []byte, 4)
	a.OnMessage(func(data []byte) { sent <- data })

	client := channel.NewChannelClient(b)
	defer client.Dispose()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetChannel("svc").Call(ctx, "work", nil)
	require.ErrorIs(t, err, channel.ErrCanceled)
	require.ErrorIs(t, err, context.Canceled)

	select {
	case <-sent:
		t.Fatal("no frame should be sent for a pre-canceled call")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChannelClient_ListenFansOutToMultipleSubscribers(t *testing.T) {
	t.Parallel()

	_, client := newLinkedPair(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ch := client.GetChannel("greeter")

	s1, err := ch.Listen(ctx, "ticks", nil)
	require.NoError(t, err)
	s2, err := ch.Listen(ctx, "ticks", nil)
	require.NoError(t, err)

	var got1, got2 []any
	for i := 0; i < 5; i++ {
		select {
		case v := <-s1:
			got1 = append(got1, v)
		case <-time.After(time.Second):
			t.Fatal("s1 did not receive event")
		}
		select {
		case v := <-s2:
			got2 = append(got2, v)
		case <-time.After(time.Second):
			t.Fatal("s2 did not receive event")
		}
	}

	require.Len(t, got1, 5)
	require.Len(t, got2, 5)
}

func TestChannelClient_ListenStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	_, client := newLinkedPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	ch := client.GetChannel("greeter")

	events, err := ch.Listen(ctx, "ticks", nil)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("listen channel did not close after cancel")
	}
}
