package utils

import (
	"net/http"
	"strings"
)

// 允许上传的图像类型，基于内容嗅探结果判断
var allowedImageTypes = map[string]struct{}{
	"image/jpeg":     {},
	"image/png":      {},
	"image/gif":      {},
	"image/webp":     {},
	"image/bmp":      {},
	"image/x-ms-bmp": {},
}

// SniffImageType 嗅探数据的 MIME 类型，最多读取前 512 字节
func SniffImageType(head []byte) string {
	return http.DetectContentType(head)
}

// IsAllowedImageType 判断嗅探出的 MIME 类型是否为允许的图像类型
func IsAllowedImageType(contentType string) bool {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	_, ok := allowedImageTypes[strings.TrimSpace(strings.ToLower(contentType))]
	return ok
}

// BuildFileURL 拼接文件的绝对访问地址
func BuildFileURL(baseURL, logicalPath string) string {
	base := strings.TrimRight(baseURL, "/")
	return base + "/photos/" + strings.TrimLeft(logicalPath, "/")
}
