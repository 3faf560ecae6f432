// Package cache provides a mutex-guarded map whose entries expire after a
// fixed TTL. Expired entries are invisible to Get and are physically removed
// by Sweep, which the cron scheduler calls on its own interval.
package cache

import (
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLMap is safe for concurrent use. Every operation holds the map lock for
// the duration of a map access only.
type TTLMap[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   clock.Clock
	entries map[K]entry[V]
}

func NewTTLMap[K comparable, V any](ttl time.Duration, c clock.Clock) *TTLMap[K, V] {
	if c == nil {
		c = clock.Real{}
	}
	return &TTLMap[K, V]{
		ttl:     ttl,
		clock:   c,
		entries: make(map[K]entry[V]),
	}
}

func (m *TTLMap[K, V]) TTL() time.Duration { return m.ttl }

// Get returns the value if present and not expired.
func (m *TTLMap[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || !m.clock.Now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (m *TTLMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry[V]{value: value, expiresAt: m.clock.Now().Add(m.ttl)}
}

// SetIf stores value only when ok() holds while the lock is held. Callers use
// it to re-check an invalidation generation atomically with the write.
func (m *TTLMap[K, V]) SetIf(key K, value V, ok func() bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !ok() {
		return false
	}
	m.entries[key] = entry[V]{value: value, expiresAt: m.clock.Now().Add(m.ttl)}
	return true
}

func (m *TTLMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// DeleteFunc removes every entry whose key matches and returns the count.
func (m *TTLMap[K, V]) DeleteFunc(match func(K) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k := range m.entries {
		if match(k) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

func (m *TTLMap[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[K]entry[V])
}

// Sweep evicts expired entries and returns how many were removed.
func (m *TTLMap[K, V]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	removed := 0
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// Len counts stored entries, including expired ones not yet swept.
func (m *TTLMap[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
