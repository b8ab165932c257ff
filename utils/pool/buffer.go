package pool

import "sync"

// SharedBufferPool 全局共享的拷贝缓冲池，用于文件流式传输
var SharedBufferPool = NewBufferPool(256 * 1024)

// BufferPool 固定大小字节缓冲的对象池
type BufferPool struct {
	pool sync.Pool
	size int
}

// NewBufferPool 创建指定缓冲大小的对象池
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		},
		size: size,
	}
}

// Get 取出一个缓冲
func (p *BufferPool) Get() *[]byte {
	return p.pool.Get().(*[]byte)
}

// Put 归还缓冲
func (p *BufferPool) Put(buf *[]byte) {
	if buf == nil || len(*buf) != p.size {
		return
	}
	p.pool.Put(buf)
}
