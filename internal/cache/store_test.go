package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedSupplier struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestTTLCacheExpiresEntries(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTTLCache[string, int](func() time.Time { return now })

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, 0)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok, "expired entry should be gone")

	v, ok = c.Get("b")
	require.True(t, ok, "entry without ttl should persist")
	assert.Equal(t, 2, v)

	c.Delete("b")
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var out cachedSupplier
	found, err := store.Get(ctx, "supplier:1", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "supplier:1", cachedSupplier{ID: "1", Name: "Acme"}, time.Minute))

	found, err = store.Get(ctx, "supplier:1", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Acme", out.Name)

	require.NoError(t, store.Delete(ctx, "supplier:1", "supplier:2"))
	found, err = store.Get(ctx, "supplier:1", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
