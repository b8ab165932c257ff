package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/studio-b12/gowebdav"
)

// WebDAVStorage WebDAV 存储实现
type WebDAVStorage struct {
	client   *gowebdav.Client
	rootPath string
}

// NewWebDAVStorage 创建 WebDAV 存储提供者
func NewWebDAVStorage(url, username, password, rootPath string) (*WebDAVStorage, error) {
	if url == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	rootPath = strings.Trim(rootPath, "/")
	if rootPath != "" {
		rootPath = "/" + rootPath
	}

	client := gowebdav.NewClient(url, username, password)
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}

	if rootPath != "" {
		if err := client.MkdirAll(rootPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create webdav root '%s': %w", rootPath, err)
		}
	}

	return &WebDAVStorage{
		client:   client,
		rootPath: rootPath,
	}, nil
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(key Key) string {
	return s.rootPath + "/" + key.String()
}

// SaveWithContext 保存文件到 WebDAV 存储
func (s *WebDAVStorage) SaveWithContext(ctx context.Context, key Key, file io.Reader) error {
	if !isValidSegment(key.Owner) || !isValidSegment(key.Name) {
		return fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}

	ownerDir := s.rootPath + "/" + key.Owner
	if err := s.client.MkdirAll(ownerDir, 0755); err != nil {
		return fmt.Errorf("failed to create owner directory '%s': %w", ownerDir, err)
	}

	if err := s.client.WriteStream(s.fullPath(key), file, 0644); err != nil {
		return fmt.Errorf("failed to write '%s' to webdav: %w", key, err)
	}
	return nil
}

// GetWithContext 从 WebDAV 存储获取文件
func (s *WebDAVStorage) GetWithContext(ctx context.Context, key Key) (io.ReadCloser, error) {
	if !isValidSegment(key.Owner) || !isValidSegment(key.Name) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}

	stream, err := s.client.ReadStream(s.fullPath(key))
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to read '%s' from webdav: %w", key, err)
	}
	return stream, nil
}

// DeleteWithContext 从 WebDAV 存储删除文件
func (s *WebDAVStorage) DeleteWithContext(ctx context.Context, key Key) error {
	if !isValidSegment(key.Owner) || !isValidSegment(key.Name) {
		return fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}

	if _, err := s.client.Stat(s.fullPath(key)); err != nil {
		if gowebdav.IsErrNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("failed to stat '%s' on webdav: %w", key, err)
	}

	if err := s.client.Remove(s.fullPath(key)); err != nil {
		return fmt.Errorf("failed to delete '%s' from webdav: %w", key, err)
	}
	return nil
}

// StatWithContext 获取单个文件信息
func (s *WebDAVStorage) StatWithContext(ctx context.Context, key Key) (FileInfo, error) {
	if !isValidSegment(key.Owner) || !isValidSegment(key.Name) {
		return FileInfo{}, fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}

	stat, err := s.client.Stat(s.fullPath(key))
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return FileInfo{}, fmt.Errorf("failed to stat '%s' on webdav: %w", key, err)
	}

	return FileInfo{
		Name:       key.Name,
		Path:       key.String(),
		Size:       stat.Size(),
		CreatedAt:  stat.ModTime(),
		ModifiedAt: stat.ModTime(),
	}, nil
}

// ListByOwner 列出用户目录下的全部文件，目录不存在时返回空列表
func (s *WebDAVStorage) ListByOwner(ctx context.Context, ownerID string) ([]FileInfo, error) {
	if !isValidSegment(ownerID) {
		return nil, fmt.Errorf("%w: owner %q", ErrInvalidPath, ownerID)
	}

	ownerDir := s.rootPath + "/" + ownerID
	entries, err := s.client.ReadDir(ownerDir)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("failed to list webdav directory '%s': %w", ownerDir, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Name:       entry.Name(),
			Path:       ownerID + "/" + entry.Name(),
			Size:       entry.Size(),
			CreatedAt:  entry.ModTime(),
			ModifiedAt: entry.ModTime(),
		})
	}

	return files, nil
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	_, err := s.client.ReadDir(s.rootPath + "/")
	return err
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	return "webdav"
}
