package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/luoxir/photo-store/internal/metadata"
	"github.com/luoxir/photo-store/internal/watermark"
	"github.com/luoxir/photo-store/internal/worker"
	"github.com/luoxir/photo-store/storage"
	"github.com/luoxir/photo-store/utils"
)

// ErrTooLarge 上传体超出大小上限
var ErrTooLarge = errors.New("upload exceeds size limit")

// Result 上传完成后返回给调用方的信息
type Result struct {
	StoredPath string    `json:"filePath"`
	SizeBytes  int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Request 单次上传请求
type Request struct {
	LogicalPath string    // "ownerID/fileName" 形式的逻辑路径
	AlbumID     string    // 可选，用于查找相册水印配置
	Username    string    // 可选，用于动态水印占位符
	Body        io.Reader // 原始图像数据
	MaxBytes    int64     // 单文件大小上限，0 表示不限制
}

// Service 上传管线：校验、合成水印、落盘
type Service struct {
	provider storage.Provider
	store    metadata.Store
	pool     *worker.Pool
}

// NewService 创建上传服务
func NewService(provider storage.Provider, store metadata.Store, pool *worker.Pool) *Service {
	return &Service{
		provider: provider,
		store:    store,
		pool:     pool,
	}
}

// Upload 执行完整的上传管线并返回存储结果
//
// 管线顺序：解析逻辑路径 -> 读取并校验数据 -> 查找相册水印配置 ->
// 合成水印（在计算池中执行）-> 原子写入存储。
// 元数据后端不可用时水印环节整体跳过，上传本身不受影响。
func (s *Service) Upload(ctx context.Context, req Request) (*Result, error) {
	key, err := storage.ParseKey(req.LogicalPath)
	if err != nil {
		return nil, err
	}

	data, err := readAll(req.Body, req.MaxBytes)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload body", storage.ErrInvalidPath)
	}
	if !utils.IsAllowedImageType(utils.SniffImageType(sniffHead(data))) {
		return nil, fmt.Errorf("%w: unsupported file type", watermark.ErrImageDecode)
	}

	spec := s.resolveWatermark(ctx, req.AlbumID)
	if !spec.IsNone() {
		wmCtx := watermark.NewContext(req.Username)
		composited, err := s.composite(ctx, data, spec, wmCtx)
		if err != nil {
			return nil, err
		}
		data = composited
	}

	if err := s.provider.SaveWithContext(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("save %s: %w", key.String(), err)
	}

	s.store.RecordOperation(ctx, metadata.Operation{
		Action:  "upload",
		UserID:  key.Owner,
		AlbumID: req.AlbumID,
		Detail:  key.Name,
	})

	return &Result{
		StoredPath: key.String(),
		SizeBytes:  int64(len(data)),
		UploadedAt: time.Now(),
	}, nil
}

// resolveWatermark 查找相册水印配置并转换为合成参数
// 配置缺失、后端不可用或水印图加载失败时返回空水印
func (s *Service) resolveWatermark(ctx context.Context, albumID string) watermark.Spec {
	if albumID == "" {
		return watermark.Spec{Kind: watermark.KindNone}
	}
	cfg, err := s.store.GetAlbumWatermark(ctx, albumID)
	if err != nil || cfg == nil {
		return watermark.Spec{Kind: watermark.KindNone}
	}

	spec := watermark.Spec{
		Kind:     watermark.Kind(cfg.Kind),
		Template: cfg.TemplateText,
		Opacity:  cfg.Opacity,
		Position: watermark.Position(cfg.Position),
	}
	if spec.Kind == watermark.KindStaticImage && cfg.WatermarkImagePath != "" {
		img, err := s.loadWatermarkImage(ctx, cfg.WatermarkImagePath)
		if err != nil {
			log.Printf("Watermark image unavailable, skipping watermark: %v", err)
			return watermark.Spec{Kind: watermark.KindNone}
		}
		spec.SourceImage = img
	}
	return spec
}

// loadWatermarkImage 从存储层读取水印源图
func (s *Service) loadWatermarkImage(ctx context.Context, logicalPath string) ([]byte, error) {
	key, err := storage.ParseKey(logicalPath)
	if err != nil {
		return nil, err
	}
	rc, err := s.provider.GetWithContext(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// composite 在计算池中执行水印合成，避免阻塞请求协程
func (s *Service) composite(ctx context.Context, src []byte, spec watermark.Spec, wmCtx watermark.Context) ([]byte, error) {
	var (
		out  []byte
		cerr error
	)
	err := s.pool.Do(ctx, func() {
		out, cerr = watermark.Composite(src, spec, wmCtx)
	})
	if err != nil {
		return nil, err
	}
	if cerr != nil {
		// 源图无法解码时直接拒绝，水印素材自身的失败在 Composite 内部降级
		return nil, cerr
	}
	return out, nil
}

// readAll 读取全部数据并强制大小上限
func readAll(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 {
		limited := io.LimitReader(r, maxBytes+1)
		data, err := io.ReadAll(limited)
		if err != nil {
			return nil, fmt.Errorf("read upload body: %w", err)
		}
		if int64(len(data)) > maxBytes {
			return nil, fmt.Errorf("%w of %d bytes", ErrTooLarge, maxBytes)
		}
		return data, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	return data, nil
}

func sniffHead(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}
