package models

import "time"

// OperationLog 操作流水（尽力而为写入）
type OperationLog struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"column:user_id;index"`
	PhotoID   string `gorm:"column:photo_id;index"`
	AlbumID   string `gorm:"column:album_id;index"`
	Action    string `gorm:"column:action;not null;index"`
	Detail    string `gorm:"column:detail"`
	CreatedAt time.Time
}

func (OperationLog) TableName() string {
	return "operation_logs"
}
