package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetSetDel(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var got string
	assert.False(t, s.Get(ctx, "k", &got))

	require.True(t, s.Set(ctx, "k", "v", time.Minute))
	require.True(t, s.Get(ctx, "k", &got))
	assert.Equal(t, "v", got)

	require.True(t, s.Del(ctx, "k"))
	assert.False(t, s.Get(ctx, "k", &got))
}

func TestMemoryStoreStructValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	require.True(t, s.Set(ctx, "p", payload{Name: "a", Count: 3}, time.Minute))

	var got payload
	require.True(t, s.Get(ctx, "p", &got))
	assert.Equal(t, payload{Name: "a", Count: 3}, got)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.True(t, s.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	var got string
	assert.False(t, s.Get(ctx, "k", &got))
	assert.False(t, s.TakeOnce(ctx, "k", "v"))
}

func TestMemoryStoreTakeOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.True(t, s.Set(ctx, "otp", "123456", time.Minute))

	assert.False(t, s.TakeOnce(ctx, "otp", "999999"), "wrong value must not consume")
	assert.True(t, s.TakeOnce(ctx, "otp", "123456"))
	assert.False(t, s.TakeOnce(ctx, "otp", "123456"), "second take must fail")

	var got string
	assert.False(t, s.Get(ctx, "otp", &got), "consumed key must be gone")
}

func TestMemoryStoreFlushAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.True(t, s.Set(ctx, "a", 1, time.Minute))
	require.True(t, s.Set(ctx, "b", 2, time.Minute))
	require.True(t, s.FlushAll(ctx))

	var got int
	assert.False(t, s.Get(ctx, "a", &got))
	assert.False(t, s.Get(ctx, "b", &got))
}
