// Package keylock hands out one mutex per key, so work for the same employee
// is serialized while unrelated employees proceed in parallel.
package keylock

import (
	"context"
	"sync"
)

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*lockEntry)}
}

// Lock blocks until key is free and returns the matching unlock function.
// Entries are dropped once nobody holds or waits for them.
func (k *KeyLock) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

type heldKey struct {
	owner *KeyLock
	key   string
}

// LockContext is Lock for call chains: when ctx already holds key it returns
// ctx and a no-op unlock, otherwise it locks key and marks the returned ctx.
// Acquire the key before opening a transaction.
func (k *KeyLock) LockContext(ctx context.Context, key string) (context.Context, func()) {
	hk := heldKey{owner: k, key: key}
	if ctx.Value(hk) != nil {
		return ctx, func() {}
	}
	unlock := k.Lock(key)
	return context.WithValue(ctx, hk, true), unlock
}

// Held reports how many keys currently have holders or waiters.
func (k *KeyLock) Held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
