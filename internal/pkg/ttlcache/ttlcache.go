package ttlcache

import (
	"sync"
	"time"
)

// Value caches a single value for a fixed duration. A value older than the
// TTL is treated as absent, never returned stale.
type Value[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	value   T
	setAt   time.Time
	present bool
}

func New[T any](ttl time.Duration) *Value[T] {
	return NewWithClock[T](ttl, time.Now)
}

func NewWithClock[T any](ttl time.Duration, now func() time.Time) *Value[T] {
	return &Value[T]{ttl: ttl, now: now}
}

func (v *Value[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.present || v.now().Sub(v.setAt) >= v.ttl {
		var zero T
		return zero, false
	}
	return v.value, true
}

func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = value
	v.setAt = v.now()
	v.present = true
}

func (v *Value[T]) Invalidate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	var zero T
	v.value = zero
	v.present = false
}
