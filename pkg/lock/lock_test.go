package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-health/resicore/pkg/errs"
	"github.com/meridian-health/resicore/pkg/model"
)

func TestTryAcquireThenContendedFails(t *testing.T) {
	l := NewTTLLock()
	ctx := context.Background()

	handle, err := l.TryAcquire(ctx, "schedule:1:checkpoint", time.Minute)
	require.NoError(t, err)

	_, err = l.TryAcquire(ctx, "schedule:1:checkpoint", time.Minute)
	assert.True(t, errs.Is(err, errs.ErrLockContention))

	require.NoError(t, l.Release(ctx, handle))

	_, err = l.TryAcquire(ctx, "schedule:1:checkpoint", time.Minute)
	assert.NoError(t, err)
}

func TestReleaseWithStaleTokenIsRejected(t *testing.T) {
	l := NewTTLLock()
	ctx := context.Background()

	handle, err := l.TryAcquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	stale := handle
	stale.Token = "not-the-real-token"
	err = l.Release(ctx, stale)
	assert.Error(t, err)

	require.NoError(t, l.Release(ctx, handle))
}

func TestAcquireWithRetrySucceedsAfterRelease(t *testing.T) {
	l := NewTTLLock()
	ctx := context.Background()

	handle, err := l.TryAcquire(ctx, "k", 50*time.Millisecond)
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = l.Release(context.Background(), handle)
	}()

	_, err = l.AcquireWithRetry(ctx, "k", time.Minute, 10)
	assert.NoError(t, err)
}

func TestReleaseUnknownKeyIsNoop(t *testing.T) {
	l := NewTTLLock()
	err := l.Release(context.Background(), model.LockHandle{Key: "missing", Token: "x"})
	assert.NoError(t, err)
}
