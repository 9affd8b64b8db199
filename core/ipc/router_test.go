package ipc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ipc/core/ipc"
	"github.com/dmitrymomot/ipc/core/wire"
)

func TestStaticRouter_WaitsForMatchingPeer(t *testing.T) {
	t.Parallel()

	hub := ipc.NewIPCServer()
	defer hub.Dispose()

	peerA := joinHub(t, hub, "A")
	defer peerA.client.Dispose()
	peerA.client.ChannelServer.RegisterChannel("svc", pingChannel{who: "A"})

	peerB := joinHub(t, hub, "B")
	defer peerB.client.Dispose()
	peerB.client.ChannelServer.RegisterChannel("svc", pingChannel{who: "B"})

	router := ipc.NewStaticRouter(func(_ context.Context, peerCtx any) (bool, error) {
		return peerCtxString(peerCtx) == "C", nil
	})

	delayed := hub.GetChannel("svc", router)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		value, err := delayed.Call(ctx, "ping", nil)
		if err != nil {
			errs <- err
			return
		}
		obj, ok := value.(wire.Object)
		require.True(t, ok)
		var s string
		require.NoError(t, obj.Decode(&s))
		result <- s
	}()

	select {
	case <-result:
		t.Fatal("call resolved before a matching connection joined")
	case <-errs:
		t.Fatal("call errored before a matching connection joined")
	case <-time.After(100 * time.Millisecond):
		// expected: still pending, waiting on A/B which don't match.
	}

	peerC := joinHub(t, hub, "C")
	defer peerC.client.Dispose()
	peerC.client.ChannelServer.RegisterChannel("svc", pingChannel{who: "C"})

	select {
	case s := <-result:
		require.Equal(t, "pong from C", s)
	case err := <-errs:
		t.Fatalf("call failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("call never resolved after matching connection joined")
	}
}
