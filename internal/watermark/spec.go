package watermark

import (
	"errors"
	"time"
)

var (
	// ErrImageDecode 源图片字节损坏或格式不受支持
	ErrImageDecode = errors.New("failed to decode source image")
)

// Kind 水印类型
type Kind string

const (
	KindNone          Kind = "none"
	KindStaticText    Kind = "static_text"
	KindStaticImage   Kind = "static_image"
	KindStaticQRCode  Kind = "static_qrcode"
	KindDynamicText   Kind = "dynamic_text"
	KindDynamicQRCode Kind = "dynamic_qrcode"
)

// Position 九宫格锚点
type Position string

const (
	PositionTopLeft      Position = "top-left"
	PositionTopCenter    Position = "top-center"
	PositionTopRight     Position = "top-right"
	PositionCenterLeft   Position = "center-left"
	PositionCenter       Position = "center"
	PositionCenterRight  Position = "center-right"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomCenter Position = "bottom-center"
	PositionBottomRight  Position = "bottom-right"
)

// Spec 水印描述：类型、模板文本、水印图、透明度与锚点
// 静态水印来自相册配置，动态水印由批量下载请求提供
type Spec struct {
	Kind        Kind
	Template    string
	SourceImage []byte
	Opacity     float64
	Position    Position
}

// IsNone 判断是否无需合成
func (s Spec) IsNone() bool {
	switch s.Kind {
	case KindStaticText, KindStaticImage, KindStaticQRCode, KindDynamicText, KindDynamicQRCode:
		return false
	default:
		// 未知类型按无水印处理，不因坏配置毁掉整个上传/下载
		return true
	}
}

// Context 模板变量表，用于替换模板中的 {key} 占位符
type Context map[string]string

// NewContext 构建基础模板变量表，datetime 取当前时间
func NewContext(username string) Context {
	return Context{
		"username": username,
		"datetime": time.Now().Format("2006-01-02 15:04:05"),
	}
}

// With 设置一个模板变量并返回自身，便于链式补充 ip/photoId 等字段
func (c Context) With(key, value string) Context {
	c[key] = value
	return c
}
