package models

import "time"

// Photo 照片元数据行（只读视图）
// 表由外部相册应用拥有，本服务只读取 id 与 image_path 解析导出目标，
// 以及尽力而为地累加 download_count
type Photo struct {
	ID            string `gorm:"primaryKey;column:id"`
	UserID        string `gorm:"column:user_id;index"`
	ImagePath     string `gorm:"column:image_path;not null"`
	FileSize      int64  `gorm:"column:file_size"`
	DownloadCount int64  `gorm:"column:download_count;default:0"`
	CreatedAt     time.Time
}

func (Photo) TableName() string {
	return "photos"
}
