package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/luoxir/photo-store/cache"
	"github.com/luoxir/photo-store/config"
	"github.com/luoxir/photo-store/database"
	"github.com/luoxir/photo-store/internal/export"
	"github.com/luoxir/photo-store/internal/metadata"
	"github.com/luoxir/photo-store/internal/upload"
	"github.com/luoxir/photo-store/internal/worker"
	"github.com/luoxir/photo-store/storage"
)

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config *config.Config

	storageFactory  *storage.Factory
	databaseFactory *database.Factory
	cacheProvider   cache.Provider
	connState       *metadata.ConnState
	adapter         *metadata.Adapter
	pool            *worker.Pool
	uploader        *upload.Service
	exporter        *export.Service

	probeCancel context.CancelFunc
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:    cfg,
		connState: metadata.NewConnState(),
	}
}

// Init 初始化全部组件
//
// 存储层初始化失败是致命错误；元数据库不可用不是：适配器以
// 断连状态启动，由后台探活在后端恢复后重新接通。
func (c *Container) Init() error {
	if err := c.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.initCache()
	c.initDatabase()
	c.initServices()
	return nil
}

func (c *Container) initStorage() error {
	factory, err := storage.NewFactory(c.config)
	if err != nil {
		return err
	}
	c.storageFactory = factory
	log.Printf("Storage initialized, default provider: %s", factory.GetDefaultName())
	return nil
}

func (c *Container) initCache() {
	provider, err := cache.NewProvider(c.config)
	if err != nil {
		log.Printf("[Warning] Cache unavailable, continuing without cache: %v", err)
		return
	}
	c.cacheProvider = provider
}

func (c *Container) initDatabase() {
	factory, err := database.NewFactory(c.config)
	if err != nil {
		log.Printf("[Warning] Metadata database unavailable, starting in degraded mode: %v", err)
		return
	}
	c.databaseFactory = factory

	if err := factory.AutoMigrate(); err != nil {
		log.Printf("[Warning] Database migration failed: %v", err)
	}
}

func (c *Container) initServices() {
	var dbProvider database.Provider
	if c.databaseFactory != nil {
		dbProvider = c.databaseFactory.GetProvider()
	}

	cacheTTL := time.Duration(c.config.CacheConfigTTL) * time.Second
	c.adapter = metadata.NewAdapter(dbProvider, c.connState, c.cacheProvider, cacheTTL)

	c.pool = worker.NewPool(c.config.GetWorkerCount(), 256)
	c.pool.Start()

	provider := c.storageFactory.GetDefault()
	c.uploader = upload.NewService(provider, c.adapter, c.pool)
	c.exporter = export.NewService(provider, c.adapter, c.pool)
}

// StartProbe 启动元数据后端的后台探活
func (c *Container) StartProbe() {
	ctx, cancel := context.WithCancel(context.Background())
	c.probeCancel = cancel
	c.adapter.StartProbe(ctx, c.config.DBProbeInterval)
}

// GetStorageFactory 获取存储工厂
func (c *Container) GetStorageFactory() *storage.Factory {
	return c.storageFactory
}

// GetCacheProvider 获取缓存提供者
func (c *Container) GetCacheProvider() cache.Provider {
	return c.cacheProvider
}

// GetAdapter 获取元数据适配器
func (c *Container) GetAdapter() *metadata.Adapter {
	return c.adapter
}

// GetUploader 获取上传服务
func (c *Container) GetUploader() *upload.Service {
	return c.uploader
}

// GetExporter 获取导出服务
func (c *Container) GetExporter() *export.Service {
	return c.exporter
}

// Close 按依赖顺序关闭所有组件
func (c *Container) Close() error {
	if c.probeCancel != nil {
		c.probeCancel()
	}
	if c.pool != nil {
		c.pool.Stop()
	}

	var firstErr error
	if c.cacheProvider != nil {
		if err := c.cacheProvider.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close cache: %w", err)
		}
	}
	if c.databaseFactory != nil {
		if err := c.databaseFactory.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close database: %w", err)
		}
	}
	return firstErr
}
