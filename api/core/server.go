package core

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	exportHandler "github.com/luoxir/photo-store/api/handler/export"
	"github.com/luoxir/photo-store/api/handler/files"
	"github.com/luoxir/photo-store/api/middleware"
	"github.com/luoxir/photo-store/cache"
	"github.com/luoxir/photo-store/config"
	"github.com/luoxir/photo-store/internal/export"
	"github.com/luoxir/photo-store/internal/metadata"
	"github.com/luoxir/photo-store/internal/upload"
	"github.com/luoxir/photo-store/storage"
)

var startTime = time.Now()

// ServerDependencies 服务器依赖项
type ServerDependencies struct {
	StorageFactory *storage.Factory
	CacheProvider  cache.Provider
	Metadata       *metadata.Adapter
	Uploader       *upload.Service
	Exporter       *export.Service
}

// 启动 gin
func setupRouter(deps *ServerDependencies) (*gin.Engine, func()) {
	cfg := config.Get()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 全局中间件
	// 开发版本使用 gin 自带日志，生产版本使用带请求 ID 的访问日志
	if config.IsDevelopment() {
		router.Use(gin.Logger())
	} else {
		router.Use(middleware.AccessLog())
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL()},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.SetTrustedProxies(nil)

	// 限制上传文件大小
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	// 并发限制，避免图像合成导致内存过载
	concurrencyLimiter := middleware.NewConcurrencyLimiter(100)
	router.Use(concurrencyLimiter.Middleware())

	// 请求体大小限制：上传上限的 2 倍，且不低于 100MB 以容纳批量导出请求
	requestBodyLimit := cfg.MaxUploadBytes() * 2
	if requestBodyLimit < 100<<20 {
		requestBodyLimit = 100 << 20
	}
	router.Use(middleware.MaxBytesReader(requestBodyLimit))

	// 请求ID追踪
	router.Use(middleware.RequestID())

	// 基础监控指标
	router.Use(middleware.Metrics())

	// 速率限制
	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	photoRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitImageRPS, cfg.RateLimitImageBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		apiRateLimiter.StopCleanup()
		photoRateLimiter.StopCleanup()
	}

	router.GET("/health", func(context *gin.Context) {
		checks := gin.H{
			"metadata": checkMetadataHealth(deps.Metadata),
			"storage":  checkStorageHealth(deps.StorageFactory),
			"cache":    checkCacheHealth(deps.CacheProvider),
		}
		status := "ok"
		for _, checkResult := range checks {
			if result, ok := checkResult.(string); ok && result != "ok" {
				status = "warning"
				break
			}
		}
		// 服务存活与后端连通性解耦：始终返回 200
		context.JSON(http.StatusOK, gin.H{
			"status":  status,
			"version": config.Version,
			"checks":  checks,
		})
	})
	router.GET("/status", func(context *gin.Context) {
		context.JSON(http.StatusOK, gin.H{
			"success": true,
			"status": gin.H{
				"uptime":           time.Since(startTime).Round(time.Second).String(),
				"timestamp":        time.Now().Format(time.RFC3339),
				"version":          config.Version,
				"storageType":      deps.StorageFactory.GetDefaultName(),
				"storageDirectory": cfg.StorageLocalPath,
			},
		})
	})
	router.GET("/metrics", func(context *gin.Context) {
		context.JSON(http.StatusOK, middleware.GetMetrics())
	})

	// 创建处理器（依赖注入）
	fileHandler := files.NewHandler(deps.StorageFactory.GetDefault(), deps.Uploader, deps.Metadata)
	zipHandler := exportHandler.NewHandler(deps.Exporter)

	// 文件字节服务走独立的限流配置
	photoGroup := router.Group("/photos")
	photoGroup.Use(photoRateLimiter.Middleware())
	{
		photoGroup.GET("/:ownerId/:fileName", fileHandler.GetPhoto)  // GET /photos/{owner}/{file}
		photoGroup.DELETE("/:ownerId/:fileName", fileHandler.Delete) // DELETE /photos/{owner}/{file}
	}

	apiGroup := router.Group("/")
	apiGroup.Use(apiRateLimiter.Middleware())
	apiGroup.Use(func(context *gin.Context) { // API 响应禁止缓存
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	{
		apiGroup.POST("/upload", fileHandler.Upload)               // POST /upload
		apiGroup.GET("/info/:ownerId/:fileName", fileHandler.Info) // GET /info/{owner}/{file}
		apiGroup.GET("/files/:ownerId", fileHandler.List)          // GET /files/{owner}
		apiGroup.POST("/download-zip", zipHandler.DownloadZip)     // POST /download-zip
	}

	return router, cleanup
}

// StartServer 创建 http.Server
func StartServer(deps *ServerDependencies) (*http.Server, func()) {
	cfg := config.Get()
	router, clean := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
