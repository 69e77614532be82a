package ttlcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValueGet_ReturnsFreshValue(t *testing.T) {
	now := time.Now()
	cache := NewWithClock[string](60*time.Second, func() time.Time { return now })

	_, ok := cache.Get()
	require.False(t, ok)

	cache.Set("203.0.113.7")
	got, ok := cache.Get()
	require.True(t, ok)
	require.Equal(t, "203.0.113.7", got)
}

func TestValueGet_ExpiresAfterTTL(t *testing.T) {
	now := time.Now()
	cache := NewWithClock[string](60*time.Second, func() time.Time { return now })
	cache.Set("203.0.113.7")

	now = now.Add(59 * time.Second)
	_, ok := cache.Get()
	require.True(t, ok)

	now = now.Add(1 * time.Second)
	_, ok = cache.Get()
	require.False(t, ok)
}

func TestValueSet_RefreshesExpiry(t *testing.T) {
	now := time.Now()
	cache := NewWithClock[string](60*time.Second, func() time.Time { return now })
	cache.Set("203.0.113.7")

	now = now.Add(50 * time.Second)
	cache.Set("198.51.100.2")

	now = now.Add(50 * time.Second)
	got, ok := cache.Get()
	require.True(t, ok)
	require.Equal(t, "198.51.100.2", got)
}

func TestValueInvalidate_DropsValue(t *testing.T) {
	cache := New[int](time.Minute)
	cache.Set(42)
	cache.Invalidate()

	_, ok := cache.Get()
	require.False(t, ok)
}
