package metadata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestAdapter_DisconnectedReadsReturnEmpty 测试后端不可达时读操作降级为空结果
func TestAdapter_DisconnectedReadsReturnEmpty(t *testing.T) {
	state := NewConnState()
	state.SetConnected(false)
	adapter := NewAdapter(nil, state, nil, time.Minute)

	ctx := context.Background()

	cfg, err := adapter.GetAlbumWatermark(ctx, "album-1")
	assert.NoError(t, err)
	assert.Nil(t, cfg)

	records, err := adapter.GetPhotosByIDs(ctx, []string{"p1", "p2"})
	assert.NoError(t, err)
	assert.Empty(t, records)
}

// TestAdapter_DisconnectedWritesAreNoOps 测试后端不可达时写操作静默丢弃
func TestAdapter_DisconnectedWritesAreNoOps(t *testing.T) {
	state := NewConnState()
	state.SetConnected(false)
	adapter := NewAdapter(nil, state, nil, time.Minute)

	ctx := context.Background()

	// provider 为 nil，任何触达数据库的路径都会 panic；
	// 断开状态下这些调用必须在守卫处直接返回
	assert.NotPanics(t, func() {
		adapter.RecordOperation(ctx, Operation{Action: "upload", UserID: "u1"})
		adapter.IncrementDownloadCount(ctx, []string{"p1"})
	})
}

// TestAdapter_EmptyInputShortCircuits 测试空入参不触达后端
func TestAdapter_EmptyInputShortCircuits(t *testing.T) {
	state := NewConnState()
	state.SetConnected(true)
	adapter := NewAdapter(nil, state, nil, time.Minute)

	ctx := context.Background()

	cfg, err := adapter.GetAlbumWatermark(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, cfg)

	records, err := adapter.GetPhotosByIDs(ctx, nil)
	assert.NoError(t, err)
	assert.Empty(t, records)

	assert.NotPanics(t, func() {
		adapter.IncrementDownloadCount(ctx, nil)
	})
}

// TestConnState 测试连通状态读写
func TestConnState(t *testing.T) {
	state := NewConnState()
	assert.False(t, state.Connected(), "initial state is disconnected until first probe")

	state.SetConnected(true)
	assert.True(t, state.Connected())

	state.SetConnected(false)
	assert.False(t, state.Connected())
}

// TestAdapter_Health 测试健康检查映射
func TestAdapter_Health(t *testing.T) {
	state := NewConnState()
	adapter := NewAdapter(nil, state, nil, time.Minute)

	assert.Error(t, adapter.Health())

	state.SetConnected(true)
	assert.NoError(t, adapter.Health())
}
