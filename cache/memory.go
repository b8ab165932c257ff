package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// MemoryCache 基于 ristretto 的进程内缓存
type MemoryCache struct {
	cache *ristretto.Cache
}

// NewMemoryCache 创建进程内缓存提供者
func NewMemoryCache() (*MemoryCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     10 << 20, // 10MB
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}
	return &MemoryCache{cache: c}, nil
}

// Set 写入缓存
func (m *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	m.cache.SetWithTTL(key, data, int64(len(data)), ttl)
	return nil
}

// Get 读取缓存
func (m *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	value, found := m.cache.Get(key)
	if !found {
		return ErrCacheMiss
	}
	data, ok := value.([]byte)
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

// Delete 删除缓存键
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.cache.Del(key)
	return nil
}

// Close 关闭缓存
func (m *MemoryCache) Close() error {
	m.cache.Close()
	return nil
}
