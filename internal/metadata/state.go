package metadata

import "sync/atomic"

// ConnState 元数据库连通状态
// 由探活任务更新、每个请求读取；读写竞争是可接受的，
// 最坏情况是多一次对已宕机后端的快速失败尝试
type ConnState struct {
	connected atomic.Bool
}

// NewConnState 创建连通状态对象，初始为未连接，由首次探活置位
func NewConnState() *ConnState {
	return &ConnState{}
}

// Connected 返回当前连通状态
func (s *ConnState) Connected() bool {
	return s.connected.Load()
}

// SetConnected 更新连通状态
func (s *ConnState) SetConnected(up bool) {
	s.connected.Store(up)
}
