package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/luoxir/photo-store/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage MinIO 对象存储实现
type MinioStorage struct {
	client     *minio.Client
	bucketName string
}

// NewMinioStorage 创建 MinIO 存储提供者
func NewMinioStorage(cfg *config.Config) (*MinioStorage, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       time.Minute,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 10 * time.Second,
		DisableCompression:    true,
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure:    cfg.MinioUseSSL,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check MinIO bucket '%s': %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create MinIO bucket '%s': %w", cfg.MinioBucket, err)
		}
		log.Printf("Created MinIO bucket '%s'", cfg.MinioBucket)
	}

	return &MinioStorage{
		client:     client,
		bucketName: cfg.MinioBucket,
	}, nil
}

// SaveWithContext 保存文件到对象存储
// PutObject 本身是全或无的，不存在半成品对象可见的问题
func (s *MinioStorage) SaveWithContext(ctx context.Context, key Key, file io.Reader) error {
	_, err := s.client.PutObject(ctx, s.bucketName, key.String(), file, -1, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to put object '%s': %w", key, err)
	}
	return nil
}

// GetWithContext 从对象存储获取文件
func (s *MinioStorage) GetWithContext(ctx context.Context, key Key) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key.String(), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s': %w", key, err)
	}

	// GetObject 是惰性的，Stat 一次以便将缺失对象报告为 NotFound
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isMinioNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat object '%s': %w", key, err)
	}

	return obj, nil
}

// DeleteWithContext 从对象存储删除文件
func (s *MinioStorage) DeleteWithContext(ctx context.Context, key Key) error {
	if _, err := s.client.StatObject(ctx, s.bucketName, key.String(), minio.StatObjectOptions{}); err != nil {
		if isMinioNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("failed to stat object '%s': %w", key, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucketName, key.String(), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object '%s': %w", key, err)
	}
	return nil
}

// StatWithContext 获取单个文件信息
func (s *MinioStorage) StatWithContext(ctx context.Context, key Key) (FileInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucketName, key.String(), minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return FileInfo{}, fmt.Errorf("failed to stat object '%s': %w", key, err)
	}

	return FileInfo{
		Name:       key.Name,
		Path:       key.String(),
		Size:       info.Size,
		CreatedAt:  info.LastModified,
		ModifiedAt: info.LastModified,
	}, nil
}

// ListByOwner 按前缀列出用户的全部对象
func (s *MinioStorage) ListByOwner(ctx context.Context, ownerID string) ([]FileInfo, error) {
	if !isValidSegment(ownerID) {
		return nil, fmt.Errorf("%w: owner %q", ErrInvalidPath, ownerID)
	}

	prefix := ownerID + "/"
	files := []FileInfo{}
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: false}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects under '%s': %w", prefix, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		files = append(files, FileInfo{
			Name:       strings.TrimPrefix(obj.Key, prefix),
			Path:       obj.Key,
			Size:       obj.Size,
			CreatedAt:  obj.LastModified,
			ModifiedAt: obj.LastModified,
		})
	}

	return files, nil
}

// Health 检查存储健康状态
func (s *MinioStorage) Health(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket '%s' does not exist", s.bucketName)
	}
	return nil
}

// Name 返回存储名称
func (s *MinioStorage) Name() string {
	return "minio"
}

// isMinioNotFound 判断错误是否为对象不存在
func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
