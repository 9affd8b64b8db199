package future_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ipc/pkg/future"
)

func TestExec_ResolvesValue(t *testing.T) {
	t.Parallel()

	f := future.Exec(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})

	val, err := f.Await()
	require.NoError(t, err)
	require.Equal(t, 42, val)
}

func TestExec_PropagatesError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("boom")
	f := future.Exec(context.Background(), func(context.Context) (int, error) {
		return 0, wantErr
	})

	_, err := f.Await()
	require.ErrorIs(t, err, wantErr)
}

func TestExec_PreCancelledContextNeverRunsFn(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	f := future.Exec(ctx, func(context.Context) (int, error) {
		called = true
		return 1, nil
	})

	_, err := f.Await()
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestFuture_AwaitWithTimeout(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	f := future.Exec(context.Background(), func(context.Context) (int, error) {
		<-block
		return 1, nil
	})
	defer close(block)

	_, err := f.AwaitWithTimeout(10 * time.Millisecond)
	require.ErrorIs(t, err, future.ErrTimeout)
}

func TestResolved(t *testing.T) {
	t.Parallel()

	f := future.Resolved("hi", nil)
	require.True(t, f.IsComplete())
	val, err := f.Await()
	require.NoError(t, err)
	require.Equal(t, "hi", val)
}

func TestThen(t *testing.T) {
	t.Parallel()

	f := future.Exec(context.Background(), func(context.Context) (int, error) {
		return 2, nil
	})

	chained := future.Then(f, func(_ context.Context, v int, err error) (int, error) {
		if err != nil {
			return 0, err
		}
		return v * 10, nil
	})

	val, err := chained.Await()
	require.NoError(t, err)
	require.Equal(t, 20, val)
}
