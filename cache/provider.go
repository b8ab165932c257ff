package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss 键不存在
var ErrCacheMiss = errors.New("cache: key not found")

// Provider 缓存提供者接口
// 值按 JSON 序列化语义存取，Get 将命中值反序列化到 dest
type Provider interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	Close() error
}
