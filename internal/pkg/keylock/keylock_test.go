package keylock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	kl := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := kl.Lock("emp-1")
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, kl.Held(), "entries are released after use")
}

func TestKeyLock_DifferentKeysDoNotBlock(t *testing.T) {
	kl := New()
	unlockA := kl.Lock("emp-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := kl.Lock("emp-b")
		unlock()
		close(done)
	}()
	<-done

	assert.Equal(t, 1, kl.Held())
}

func TestKeyLock_LockContextIsReentrant(t *testing.T) {
	kl := New()
	ctx, unlock := kl.LockContext(context.Background(), "emp-1")

	inner, innerUnlock := kl.LockContext(ctx, "emp-1")
	assert.Equal(t, ctx, inner)
	innerUnlock()
	assert.Equal(t, 1, kl.Held(), "inner unlock does not release the outer hold")

	other := New()
	_, otherUnlock := other.LockContext(ctx, "emp-1")
	assert.Equal(t, 1, other.Held(), "marks are scoped to their KeyLock")
	otherUnlock()

	unlock()
	assert.Equal(t, 0, kl.Held())
}
