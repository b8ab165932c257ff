package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage 本地文件存储实现
type LocalStorage struct {
	absBasePath string
}

// NewLocalStorage 创建本地存储提供者
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory '%s': %w", absPath, err)
	}

	return &LocalStorage{
		absBasePath: absPath + string(os.PathSeparator),
	}, nil
}

// SaveWithContext 保存文件到本地存储
// 先写入同目录下的临时文件，再原子重命名到最终路径，读取方永远看不到半成品
func (s *LocalStorage) SaveWithContext(ctx context.Context, key Key, file io.Reader) error {
	ownerDir, err := s.ensureOwnerDir(key.Owner)
	if err != nil {
		return err
	}

	dstPath := filepath.Join(ownerDir, key.Name)
	if !strings.HasPrefix(dstPath, s.absBasePath) {
		return fmt.Errorf("%w: potential directory traversal: %s", ErrInvalidPath, key)
	}

	tmp, err := os.CreateTemp(ownerDir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in '%s': %w", ownerDir, err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to copy file content to '%s': %w", tmpPath, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to flush temp file '%s': %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to commit file '%s': %w", dstPath, err)
	}

	return nil
}

// GetWithContext 从本地存储获取文件
func (s *LocalStorage) GetWithContext(ctx context.Context, key Key) (io.ReadCloser, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file '%s': %w", key, err)
	}

	return f, nil
}

// DeleteWithContext 从本地存储删除文件
func (s *LocalStorage) DeleteWithContext(ctx context.Context, key Key) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("failed to delete local file '%s': %w", fullPath, err)
	}

	return nil
}

// StatWithContext 获取单个文件信息
func (s *LocalStorage) StatWithContext(ctx context.Context, key Key) (FileInfo, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return FileInfo{}, err
	}

	stat, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return FileInfo{}, fmt.Errorf("failed to stat file '%s': %w", key, err)
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
func (s *LocalStorage) ListByOwner(ctx context.Context, ownerID string) ([]FileInfo, error) {
	if !isValidSegment(ownerID) {
		return nil, fmt.Errorf("%w: owner %q", ErrInvalidPath, ownerID)
	}

	ownerDir := filepath.Join(s.absBasePath, ownerID)
	entries, err := os.ReadDir(ownerDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read owner directory '%s': %w", ownerDir, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		// 跳过尚未提交的临时文件
		if strings.HasPrefix(entry.Name(), ".upload-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:       entry.Name(),
			Path:       ownerID + "/" + entry.Name(),
			Size:       info.Size(),
			CreatedAt:  info.ModTime(),
			ModifiedAt: info.ModTime(),
		})
	}

	return files, nil
}

// Health 检查存储健康状态
func (s *LocalStorage) Health(ctx context.Context) error {
	_, err := os.ReadDir(s.absBasePath)
	return err
}

// Name 返回存储名称
func (s *LocalStorage) Name() string {
	return "local"
}

// BasePath 返回存储的基础路径
func (s *LocalStorage) BasePath() string {
	return s.absBasePath
}

// ensureOwnerDir 确保用户目录存在，并发创建竞争视为成功
func (s *LocalStorage) ensureOwnerDir(ownerID string) (string, error) {
	if !isValidSegment(ownerID) {
		return "", fmt.Errorf("%w: owner %q", ErrInvalidPath, ownerID)
	}

	ownerDir := filepath.Join(s.absBasePath, ownerID)
	if !strings.HasPrefix(ownerDir, s.absBasePath) {
		return "", fmt.Errorf("%w: owner %q", ErrInvalidPath, ownerID)
	}

	if err := os.MkdirAll(ownerDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create owner directory '%s': %w", ownerDir, err)
	}

	return ownerDir, nil
}

// resolve 将 key 转换为绝对路径并做越界检查
func (s *LocalStorage) resolve(key Key) (string, error) {
	if !isValidSegment(key.Owner) || !isValidSegment(key.Name) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, key)
	}

	fullPath := filepath.Join(s.absBasePath, key.Owner, key.Name)
	if !strings.HasPrefix(fullPath, s.absBasePath) {
		return "", fmt.Errorf("%w: potential directory traversal: %s", ErrInvalidPath, key)
	}

	return fullPath, nil
}
