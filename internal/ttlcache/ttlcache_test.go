package ttlcache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetExpiry(t *testing.T) {
	now := time.Now()
	c := New[string](time.Minute, 0)
	c.Set("k", "v", now)

	got, ok := c.Get("k", now.Add(59*time.Second))
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	_, ok = c.Get("k", now.Add(time.Minute))
	assert.False(t, ok, "entry at exactly TTL is a miss")
	assert.Equal(t, 0, c.Len(), "expired entry is removed on read")
}

func TestSetResetsTTL(t *testing.T) {
	now := time.Now()
	c := New[int](time.Minute, 0)
	c.Set("k", 1, now)
	c.Set("k", 2, now.Add(50*time.Second))

	got, ok := c.Get("k", now.Add(100*time.Second))
	assert.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestSizeBoundEvictsOldest(t *testing.T) {
	now := time.Now()
	c := New[int](time.Hour, 3)
	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, now.Add(time.Duration(i)*time.Second))
	}

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("k0", now.Add(4*time.Second))
	assert.False(t, ok, "oldest entry evicted first")
	_, ok = c.Get("k3", now.Add(4*time.Second))
	assert.True(t, ok)
}

func TestSweep(t *testing.T) {
	now := time.Now()
	c := New[int](time.Minute, 0)
	c.Set("old", 1, now)
	c.Set("fresh", 2, now.Add(30*time.Second))

	dropped := c.Sweep(now.Add(time.Minute))
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 1, c.Len())
}
