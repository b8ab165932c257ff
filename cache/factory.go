package cache

import (
	"fmt"
	"log"

	"github.com/luoxir/photo-store/config"
)

// NewProvider 按配置创建缓存提供者
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.CacheType {
	case "memory", "":
		log.Println("Initializing in-memory cache provider")
		return NewMemoryCache()
	case "redis":
		log.Printf("Initializing redis cache provider at %s", cfg.CacheRedisAddr)
		return NewRedisCache(cfg.CacheRedisAddr, cfg.CacheRedisPassword, cfg.CacheRedisDB)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}
