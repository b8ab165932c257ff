package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPool_Do 测试同步卸载执行
func TestPool_Do(t *testing.T) {
	pool := NewPool(2, 8)
	pool.Start()
	defer pool.Stop()

	var counter int32
	err := pool.Do(context.Background(), func() {
		atomic.AddInt32(&counter, 1)
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&counter))
}

// TestPool_DoContextCanceled 测试等待期间取消
func TestPool_DoContextCanceled(t *testing.T) {
	pool := NewPool(1, 1)
	pool.Start()
	defer pool.Stop()

	block := make(chan struct{})
	defer close(block)

	// 占住唯一的 worker
	pool.Go(func() { <-block })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	slow := func() { <-block }
	err := pool.Do(ctx, slow)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestPool_PanicRecovered 测试任务 panic 不影响池子
func TestPool_PanicRecovered(t *testing.T) {
	pool := NewPool(1, 4)
	pool.Start()
	defer pool.Stop()

	require.NoError(t, pool.Do(context.Background(), func() {
		panic("boom")
	}))

	// 池子仍然可用
	var ran int32
	require.NoError(t, pool.Do(context.Background(), func() {
		atomic.StoreInt32(&ran, 1)
	}))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

// TestPool_BoundedConcurrency 测试并发执行数不超过 worker 数
func TestPool_BoundedConcurrency(t *testing.T) {
	const workers = 2
	pool := NewPool(workers, 32)
	pool.Start()
	defer pool.Stop()

	var current, peak int32
	done := make(chan struct{}, 8)

	for i := 0; i < 8; i++ {
		pool.Go(func() {
			n := atomic.AddInt32(&current, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			done <- struct{}{}
		})
	}

	for i := 0; i < 8; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for tasks")
		}
	}

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(workers))
}
