package models

import "time"

// AlbumWatermark 相册级静态水印配置（只读视图）
// 上传时按 album_id 取一次，决定是否在入库前合成水印
type AlbumWatermark struct {
	ID                 uint    `gorm:"primaryKey"`
	AlbumID            string  `gorm:"column:album_id;uniqueIndex;not null"`
	Kind               string  `gorm:"column:kind;not null"`
	TemplateText       string  `gorm:"column:template_text"`
	WatermarkImagePath string  `gorm:"column:watermark_image_path"`
	Opacity            float64 `gorm:"column:opacity;default:0.5"`
	Position           string  `gorm:"column:position"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (AlbumWatermark) TableName() string {
	return "album_watermarks"
}
