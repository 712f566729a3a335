// Package lock provides the per-key locks that serialize shadow profile creation and merges.
package lock

import (
	"context"
	"sync"

	"lessonsync/internal/domain/service"
)

// localLocker is an in-process keyed mutex. Entries are reference counted and removed once
// nobody holds or waits for the key.
type localLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{} // buffered(1); holding the token means holding the lock
	refs int
}

// NewLocalLocker creates a KeyedLocker valid within a single process.
func NewLocalLocker() service.KeyedLocker {
	return &localLocker{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is held or ctx is done.
func (l *localLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl, false)

		return nil, ctx.Err()
	}

	var once sync.Once

	return func() {
		once.Do(func() { l.release(key, kl, true) })
	}, nil
}

func (l *localLocker) release(key string, kl *keyLock, held bool) {
	if held {
		<-kl.ch
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}
