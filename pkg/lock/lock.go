// Package lock provides an in-process DistributedLock backed by a TTL
// cache, the same way the surrounding stack uses patrickmn/go-cache as a
// lightweight expiring map rather than standing up an external store.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go"
	gocache "github.com/patrickmn/go-cache"

	"github.com/meridian-health/resicore/pkg/errs"
	"github.com/meridian-health/resicore/pkg/model"
)

const cleanupInterval = 10 * time.Second

// TTLLock is a DistributedLock implementation suitable for a single
// process: holders race on an expiring cache entry keyed by lock name.
// It satisfies model.DistributedLock.
type TTLLock struct {
	mu      sync.Mutex
	entries *gocache.Cache
}

var _ model.DistributedLock = (*TTLLock)(nil)

// NewTTLLock returns a lock store with no fixed default TTL (per-key TTL is
// supplied on TryAcquire); the cleanup goroutine sweeps expired entries
// every cleanupInterval.
func NewTTLLock() *TTLLock {
	return &TTLLock{entries: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

// TryAcquire attempts to set key in the cache, failing fast if it is
// already held. The check-then-set is guarded by mu so two concurrent
// callers can't both observe an empty slot.
func (l *TTLLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (model.LockHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, found := l.entries.Get(key); found {
		return model.LockHandle{}, errs.Wrap(errs.ErrLockContention, "key", key)
	}
	token := newToken()
	until := time.Now().Add(ttl)
	l.entries.Set(key, token, ttl)
	return model.LockHandle{Key: key, Token: token, Until: until}, nil
}

// AcquireWithRetry retries TryAcquire with exponential backoff until ctx is
// done or maxAttempts is exhausted, for callers who want to wait out brief
// contention instead of failing immediately.
func (l *TTLLock) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxAttempts uint) (model.LockHandle, error) {
	var handle model.LockHandle
	err := retry.Do(
		func() error {
			h, err := l.TryAcquire(ctx, key, ttl)
			if err != nil {
				return err
			}
			handle = h
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.Delay(10*time.Millisecond),
		retry.MaxDelay(250*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
	)
	if err != nil {
		return model.LockHandle{}, errs.Wrap(errs.ErrLockContention, "key", key, "attempts", maxAttempts)
	}
	return handle, nil
}

// Release removes the lock entry only if the caller still holds the token
// that was issued, so a stale handle past its TTL can't evict a newer
// holder's lock.
func (l *TTLLock) Release(ctx context.Context, handle model.LockHandle) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, found := l.entries.Get(handle.Key)
	if !found {
		return nil
	}
	if current != handle.Token {
		return errs.Wrap(errs.ErrLockContention, "key", handle.Key, "reason", "handle token stale")
	}
	l.entries.Delete(handle.Key)
	return nil
}

func newToken() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Errorf("lock: generating token: %w", err))
	}
	return hex.EncodeToString(b[:])
}
