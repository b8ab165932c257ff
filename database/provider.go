package database

import (
	"context"

	"gorm.io/gorm"
)

// Provider 数据库提供者接口 - 依赖倒置的核心抽象
// 定义了元数据库访问的基本操作，所有数据库实现必须遵循此接口
type Provider interface {
	// DB 返回底层 *gorm.DB 实例
	DB() *gorm.DB

	// WithContext 返回带上下文的 *gorm.DB
	WithContext(ctx context.Context) *gorm.DB

	// AutoMigrate 自动迁移数据库结构
	AutoMigrate(models ...interface{}) error

	// Ping 检查数据库连接
	Ping() error

	// Close 关闭数据库连接
	Close() error

	// Name 返回数据库名称
	Name() string
}
