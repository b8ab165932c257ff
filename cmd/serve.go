package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/luoxir/photo-store/api/core"
	"github.com/luoxir/photo-store/config"
	"github.com/luoxir/photo-store/internal/app"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the media storage server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	config.InitConfig()
	cfg := config.Get()

	if cfg.StorageLocalPath != "" {
		if err := os.MkdirAll(cfg.StorageLocalPath, os.ModePerm); err != nil {
			log.Fatalf("Failed to create storage directory: %v", err)
		}
	}
	// sqlite 默认库文件放在 ./data 下
	if err := os.MkdirAll("./data", os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	container := app.NewContainer(cfg)
	if err := container.Init(); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// 元数据后端探活：后端恢复后自动接通
	container.StartProbe()

	deps := &core.ServerDependencies{
		StorageFactory: container.GetStorageFactory(),
		CacheProvider:  container.GetCacheProvider(),
		Metadata:       container.GetAdapter(),
		Uploader:       container.GetUploader(),
		Exporter:       container.GetExporter(),
	}

	// 启动 gin
	server, cleanup := core.StartServer(deps)
	go func() {
		log.Printf("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 处理退出 signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cleanup != nil {
		cleanup()
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := container.Close(); err != nil {
		log.Printf("Error closing container: %v", err)
	}

	log.Println("Server exited successfully")
}
