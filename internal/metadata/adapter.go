package metadata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/luoxir/photo-store/cache"
	"github.com/luoxir/photo-store/database"
	"github.com/luoxir/photo-store/database/models"
	"gorm.io/gorm"
)

// PhotoRecord 导出目标解析所需的照片视图
type PhotoRecord struct {
	ID       string
	OwnerID  string
	BlobPath string
	FileSize int64
}

// AlbumWatermarkConfig 相册静态水印配置视图
type AlbumWatermarkConfig struct {
	AlbumID            string  `json:"album_id"`
	Kind               string  `json:"kind"`
	TemplateText       string  `json:"template_text"`
	WatermarkImagePath string  `json:"watermark_image_path"`
	Opacity            float64 `json:"opacity"`
	Position           string  `json:"position"`
}

// Operation 一条操作流水
type Operation struct {
	Action  string
	UserID  string
	PhotoID string
	AlbumID string
	Detail  string
}

// Store 元数据访问接口，管道层依赖此抽象
// 所有实现必须在后端不可达时降级：读返回空结果，写静默丢弃
type Store interface {
	// GetAlbumWatermark 返回相册水印配置，无配置或后端不可达时返回 nil
	GetAlbumWatermark(ctx context.Context, albumID string) (*AlbumWatermarkConfig, error)

	// GetPhotosByIDs 批量解析照片记录，只返回找到的子集
	GetPhotosByIDs(ctx context.Context, ids []string) ([]PhotoRecord, error)

	// RecordOperation 尽力而为写入操作流水，绝不阻塞或失败调用方
	RecordOperation(ctx context.Context, op Operation)

	// IncrementDownloadCount 尽力而为累加下载计数
	IncrementDownloadCount(ctx context.Context, ids []string)
}

// Adapter 容错的元数据库适配器
// 文件存取是本服务的首要职责，元数据只是增强：
// 后端宕机时上传照常成功（无水印）、导出照常返回（空归档）
type Adapter struct {
	provider database.Provider
	state    *ConnState
	cache    cache.Provider
	cacheTTL time.Duration
}

// NewAdapter 创建元数据适配器；cacheProvider 可为 nil
func NewAdapter(provider database.Provider, state *ConnState, cacheProvider cache.Provider, cacheTTL time.Duration) *Adapter {
	return &Adapter{
		provider: provider,
		state:    state,
		cache:    cacheProvider,
		cacheTTL: cacheTTL,
	}
}

// State 返回连通状态对象
func (a *Adapter) State() *ConnState {
	return a.state
}

// StartProbe 启动周期探活任务，ctx 取消时退出
func (a *Adapter) StartProbe(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	a.probe()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.probe()
			}
		}
	}()
}

// probe 执行一次探活并更新状态
func (a *Adapter) probe() {
	if a.provider == nil {
		a.state.SetConnected(false)
		return
	}

	wasUp := a.state.Connected()
	err := a.provider.Ping()
	a.state.SetConnected(err == nil)

	if err != nil && wasUp {
		log.Printf("[Metadata] Backend became unreachable, degrading to empty metadata: %v", err)
	} else if err == nil && !wasUp {
		log.Println("[Metadata] Backend connection established")
	}
}

// markDown 查询失败时立即降级，不等下一次探活
func (a *Adapter) markDown(err error) {
	a.state.SetConnected(false)
	log.Printf("[Metadata] Query failed, marking backend as down: %v", err)
}

// GetAlbumWatermark 返回相册水印配置，无配置或后端不可达时返回 nil
func (a *Adapter) GetAlbumWatermark(ctx context.Context, albumID string) (*AlbumWatermarkConfig, error) {
	if albumID == "" || !a.state.Connected() {
		return nil, nil
	}

	cacheKey := "wm:" + albumID
	if a.cache != nil {
		var cached AlbumWatermarkConfig
		if err := a.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	var row models.AlbumWatermark
	err := a.provider.WithContext(ctx).Where("album_id = ?", albumID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		a.markDown(err)
		return nil, nil
	}

	cfg := &AlbumWatermarkConfig{
		AlbumID:            row.AlbumID,
		Kind:               row.Kind,
		TemplateText:       row.TemplateText,
		WatermarkImagePath: row.WatermarkImagePath,
		Opacity:            row.Opacity,
		Position:           row.Position,
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, cacheKey, cfg, a.cacheTTL); err != nil {
			log.Printf("[Metadata] Failed to cache watermark config for album %s: %v", albumID, err)
		}
	}

	return cfg, nil
}

// GetPhotosByIDs 批量解析照片记录，只返回找到的子集，缺失的 id 静默丢弃
func (a *Adapter) GetPhotosByIDs(ctx context.Context, ids []string) ([]PhotoRecord, error) {
	if len(ids) == 0 || !a.state.Connected() {
		return []PhotoRecord{}, nil
	}

	var rows []models.Photo
	if err := a.provider.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		a.markDown(err)
		return []PhotoRecord{}, nil
	}

	records := make([]PhotoRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, PhotoRecord{
			ID:       row.ID,
			OwnerID:  row.UserID,
			BlobPath: row.ImagePath,
			FileSize: row.FileSize,
		})
	}
	return records, nil
}

// RecordOperation 尽力而为写入操作流水
func (a *Adapter) RecordOperation(ctx context.Context, op Operation) {
	if !a.state.Connected() {
		log.Printf("[Metadata] Backend down, dropping operation log: %s", op.Action)
		return
	}

	row := models.OperationLog{
		UserID:  op.UserID,
		PhotoID: op.PhotoID,
		AlbumID: op.AlbumID,
		Action:  op.Action,
		Detail:  op.Detail,
	}
	if err := a.provider.WithContext(ctx).Create(&row).Error; err != nil {
		log.Printf("[Metadata] Failed to record operation %s: %v", op.Action, err)
	}
}

// IncrementDownloadCount 尽力而为累加下载计数
func (a *Adapter) IncrementDownloadCount(ctx context.Context, ids []string) {
	if len(ids) == 0 || !a.state.Connected() {
		return
	}

	err := a.provider.WithContext(ctx).
		Model(&models.Photo{}).
		Where("id IN ?", ids).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
	if err != nil {
		log.Printf("[Metadata] Failed to increment download count for %d photo(s): %v", len(ids), err)
	}
}

// Health 供健康检查使用：连通返回 nil，否则返回说明性错误
func (a *Adapter) Health() error {
	if a.state.Connected() {
		return nil
	}
	return fmt.Errorf("metadata backend unreachable")
}
