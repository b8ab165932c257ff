package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryCache_RoundTrip 测试写入读回
func TestMemoryCache_RoundTrip(t *testing.T) {
	c, err := NewMemoryCache()
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()

	type sample struct {
		Kind    string  `json:"kind"`
		Opacity float64 `json:"opacity"`
	}

	require.NoError(t, c.Set(ctx, "wm:album-1", sample{Kind: "static_text", Opacity: 0.5}, time.Minute))

	// ristretto 的写入经过缓冲，等待其生效
	time.Sleep(20 * time.Millisecond)

	var got sample
	require.NoError(t, c.Get(ctx, "wm:album-1", &got))
	assert.Equal(t, "static_text", got.Kind)
	assert.Equal(t, 0.5, got.Opacity)
}

// TestMemoryCache_Miss 测试未命中
func TestMemoryCache_Miss(t *testing.T) {
	c, err := NewMemoryCache()
	require.NoError(t, err)
	defer c.Close()

	var got string
	err = c.Get(context.Background(), "missing", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

// TestMemoryCache_Delete 测试删除
func TestMemoryCache_Delete(t *testing.T) {
	c, err := NewMemoryCache()
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.Delete(ctx, "k"))

	var got string
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}
