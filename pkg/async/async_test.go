package async_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/async"
)

func TestAsync_Result(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fut := async.Async(ctx, 42, func(ctx context.Context, n int) (string, error) {
		time.Sleep(10 * time.Millisecond)
		return fmt.Sprintf("Number: %d", n), nil
	})

	got, err := fut.Await()
	require.NoError(t, err)
	assert.Equal(t, "Number: 42", got)
	assert.True(t, fut.IsComplete())

	// Await is repeatable.
	again, err := fut.Await()
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestAsync_Error(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	fut := async.Async(context.Background(), struct{}{}, func(context.Context, struct{}) (bool, error) {
		return false, boom
	})

	_, err := fut.Await()
	assert.ErrorIs(t, err, boom)
}

func TestAsync_Panic(t *testing.T) {
	t.Parallel()

	fut := async.Async(context.Background(), "x", func(context.Context, string) (int, error) {
		panic("kaboom")
	})

	v, err := fut.Await()
	assert.ErrorIs(t, err, async.ErrPanic)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Zero(t, v)
}

func TestAsync_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	fut := async.Async(ctx, 1, func(context.Context, int) (int, error) {
		called = true
		return 1, nil
	})

	_, err := fut.Await()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestFuture_AwaitContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	fut := async.Async(context.Background(), 0, func(ctx context.Context, _ int) (int, error) {
		<-release
		return 1, nil
	})

	t.Run("deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := fut.AwaitContext(ctx)
		assert.ErrorIs(t, err, async.ErrTimeout)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := fut.AwaitContext(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("timeout helper", func(t *testing.T) {
		_, err := fut.AwaitWithTimeout(10 * time.Millisecond)
		assert.ErrorIs(t, err, async.ErrTimeout)
		assert.False(t, fut.IsComplete())
	})
}

func TestWaitAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	double := func(_ context.Context, n int) (int, error) { return n * 2, nil }

	results, err := async.WaitAll(
		async.Async(ctx, 1, double),
		async.Async(ctx, 2, double),
		async.Async(ctx, 3, double),
	)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, results)

	boom := errors.New("boom")
	_, err = async.WaitAll(
		async.Async(ctx, 1, double),
		async.Async(ctx, 2, func(context.Context, int) (int, error) { return 0, boom }),
	)
	assert.ErrorIs(t, err, boom)
}
