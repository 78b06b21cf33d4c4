package toncenter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_ResolvesOnce(t *testing.T) {
	calls := 0
	f := Go(context.Background(), func(context.Context) (int, error) {
		calls++
		return 7, nil
	})

	v, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)
}

func TestFuture_Error(t *testing.T) {
	boom := errors.New("boom")
	f := Go(context.Background(), func(context.Context) (string, error) { return "", boom })

	<-f.Done()
	_, err := f.Get()
	assert.ErrorIs(t, err, boom)
}

func TestFuture_WaitAbandoned(t *testing.T) {
	release := make(chan struct{})
	f := Go(context.Background(), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	v, err := f.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFuture_CancelReachesCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := Go(ctx, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	cancel()

	_, err := f.Get()
	assert.ErrorIs(t, err, context.Canceled)
}
