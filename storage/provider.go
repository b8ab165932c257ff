package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrInvalidPath 逻辑路径非法（穿越、空段、段数错误）
	ErrInvalidPath = errors.New("invalid logical path")

	// ErrNotFound 目标文件不存在
	ErrNotFound = errors.New("file not found")
)

// FileInfo 存储文件的基本信息
type FileInfo struct {
	Name       string
	Path       string
	Size       int64
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Provider 存储提供者接口 - 依赖倒置的核心抽象
// 定义了 blob 存储层的基本操作，所有存储实现必须遵循此接口
type Provider interface {
	// SaveWithContext 保存文件到存储，覆盖已有内容
	// 写入过程中不得让读取方看到半成品文件
	SaveWithContext(ctx context.Context, key Key, file io.Reader) error

	// GetWithContext 从存储获取文件
	GetWithContext(ctx context.Context, key Key) (io.ReadCloser, error)

	// DeleteWithContext 从存储删除文件
	DeleteWithContext(ctx context.Context, key Key) error

	// StatWithContext 获取单个文件信息
	StatWithContext(ctx context.Context, key Key) (FileInfo, error)

	// ListByOwner 列出某个用户的全部文件；目录不存在时返回空列表
	ListByOwner(ctx context.Context, ownerID string) ([]FileInfo, error)

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}
