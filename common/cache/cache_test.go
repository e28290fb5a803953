package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache[string]()

	c.Set("a", "1", time.Minute)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache[int]()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", 7, time.Second)
	c.Set("forever", 8, 0)

	now = now.Add(2 * time.Second)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "expired entry is dropped on read")

	v, ok := c.Get("forever")
	assert.True(t, ok)
	assert.Equal(t, 8, v)
}
