package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/luoxir/photo-store/internal/metadata"
	"github.com/luoxir/photo-store/internal/watermark"
	"github.com/luoxir/photo-store/internal/worker"
	"github.com/luoxir/photo-store/storage"
)

// Request 一次批量导出请求
//
// 动态水印由调用方逐请求提供；整批照片共用同一份水印参数。
type Request struct {
	PhotoIDs          []string
	UserID            string
	Username          string
	ClientIP          string
	WatermarkKind     string
	WatermarkTemplate string
}

// Summary 导出完成后的统计
type Summary struct {
	Exported    int
	Skipped     int
	ExportedIDs []string
}

// Service 批量导出管线：解析照片记录、逐条写入 ZIP 流
type Service struct {
	provider storage.Provider
	store    metadata.Store
	pool     *worker.Pool
}

// NewService 创建导出服务
func NewService(provider storage.Provider, store metadata.Store, pool *worker.Pool) *Service {
	return &Service{
		provider: provider,
		store:    store,
		pool:     pool,
	}
}

// ExportZip 将指定照片打包为 ZIP 并写入 w，按条目增量刷出
//
// 元数据缺失或文件缺失的条目跳过而不中断整体导出；上下文取消时
// 立即终止并返回取消错误。归档收尾后尽力更新下载计数与操作日志。
func (s *Service) ExportZip(ctx context.Context, w io.Writer, req Request) (*Summary, error) {
	records, err := s.store.GetPhotosByIDs(ctx, req.PhotoIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve photo records: %w", err)
	}

	spec := watermark.Spec{
		Kind:     watermark.Kind(req.WatermarkKind),
		Template: req.WatermarkTemplate,
	}
	wmCtx := watermark.NewContext(req.Username).With("ip", req.ClientIP)

	zw := zip.NewWriter(w)
	flusher, _ := w.(interface{ Flush() })
	used := make(map[string]int)
	summary := &Summary{Skipped: len(req.PhotoIDs) - len(records)}

	for _, record := range records {
		select {
		case <-ctx.Done():
			zw.Close()
			return nil, ctx.Err()
		default:
		}

		data, err := s.readBlob(ctx, record.BlobPath)
		if err != nil {
			log.Printf("Skipping photo %s in export: %v", record.ID, err)
			summary.Skipped++
			continue
		}

		if !spec.IsNone() {
			if composited, cerr := s.composite(ctx, data, spec, wmCtx); cerr == nil {
				data = composited
			} else if ctx.Err() != nil {
				zw.Close()
				return nil, ctx.Err()
			}
		}

		entry, err := zw.Create(uniqueEntryName(used, path.Base(record.BlobPath)))
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("create zip entry for %s: %w", record.ID, err)
		}
		if _, err := entry.Write(data); err != nil {
			zw.Close()
			return nil, fmt.Errorf("write zip entry for %s: %w", record.ID, err)
		}
		if err := zw.Flush(); err != nil {
			zw.Close()
			return nil, fmt.Errorf("flush zip stream: %w", err)
		}
		if flusher != nil {
			flusher.Flush()
		}

		summary.Exported++
		summary.ExportedIDs = append(summary.ExportedIDs, record.ID)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip stream: %w", err)
	}

	if summary.Exported > 0 {
		s.store.IncrementDownloadCount(ctx, summary.ExportedIDs)
		for _, id := range summary.ExportedIDs {
			s.store.RecordOperation(ctx, metadata.Operation{
				Action:  "download",
				UserID:  req.UserID,
				PhotoID: id,
			})
		}
	}
	return summary, nil
}

func (s *Service) readBlob(ctx context.Context, blobPath string) ([]byte, error) {
	key, err := storage.ParseKey(strings.TrimLeft(blobPath, "/"))
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

// composite 在计算池中合成水印，失败时返回错误由调用方降级
func (s *Service) composite(ctx context.Context, src []byte, spec watermark.Spec, wmCtx watermark.Context) ([]byte, error) {
	var (
		out  []byte
		cerr error
	)
	if err := s.pool.Do(ctx, func() {
		out, cerr = watermark.Composite(src, spec, wmCtx)
	}); err != nil {
		return nil, err
	}
	if cerr != nil {
		return nil, cerr
	}
	return out, nil
}

// uniqueEntryName 为重名条目追加 " (n)" 后缀，保持扩展名不变
func uniqueEntryName(used map[string]int, name string) string {
	if name == "" || name == "." || name == "/" {
		name = "photo"
	}
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", base, n, ext)
}
