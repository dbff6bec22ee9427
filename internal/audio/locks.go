package audio

import (
	"context"
	"path/filepath"
	"sync"
)

// AssetLocks serializes work on the same asset. Different assets never block each other.
// Locks are advisory: only callers that go through Acquire are serialized.
type AssetLocks struct {
	mu    sync.Mutex
	locks map[string]*assetLock
}

type assetLock struct {
	sem  chan struct{}
	refs int
}

func NewAssetLocks() *AssetLocks {
	return &AssetLocks{locks: make(map[string]*assetLock)}
}

// Acquire blocks until the asset is free or ctx is done. The returned release func must be
// called exactly once.
func (l *AssetLocks) Acquire(ctx context.Context, asset string) (func(), error) {
	key := lockKey(asset)

	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &assetLock{sem: make(chan struct{}, 1)}
		l.locks[key] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, lock)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.sem
			l.unref(key, lock)
		})
	}, nil
}

// Held reports how many callers hold or wait for the asset
func (l *AssetLocks) Held(asset string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lock, ok := l.locks[lockKey(asset)]; ok {
		return lock.refs
	}
	return 0
}

func (l *AssetLocks) unref(key string, lock *assetLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, key)
	}
}

func lockKey(asset string) string {
	if abs, err := filepath.Abs(asset); err == nil {
		return abs
	}
	return filepath.Clean(asset)
}
