package core

import (
	"context"
	"fmt"
	"time"

	"github.com/luoxir/photo-store/cache"
	"github.com/luoxir/photo-store/internal/metadata"
	"github.com/luoxir/photo-store/storage"
)

const healthCheckTimeout = 3 * time.Second

// checkMetadataHealth 探测元数据后端连通性
func checkMetadataHealth(adapter *metadata.Adapter) string {
	if adapter == nil {
		return "not configured"
	}
	if err := adapter.Health(); err != nil {
		return fmt.Sprintf("unavailable: %v", err)
	}
	return "ok"
}

// checkStorageHealth 探测默认存储的可写性
func checkStorageHealth(factory *storage.Factory) string {
	if factory == nil {
		return "not configured"
	}
	provider := factory.GetDefault()
	if provider == nil {
		return "not configured"
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	if err := provider.Health(ctx); err != nil {
		return fmt.Sprintf("unavailable: %v", err)
	}
	return "ok"
}

// checkCacheHealth 探测缓存读写
func checkCacheHealth(provider cache.Provider) string {
	if provider == nil {
		return "not configured"
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	if err := provider.Set(ctx, "health:probe", "ok", time.Minute); err != nil {
		return fmt.Sprintf("unavailable: %v", err)
	}
	return "ok"
}
