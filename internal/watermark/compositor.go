package watermark

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Composite 将水印合成到源图片上，返回输出字节
// 纯函数，无 I/O；kind 为 none 或未知时原样返回源字节
// 水印配置损坏时降级为无水印，源图片字节损坏时返回 ErrImageDecode
func Composite(src []byte, spec Spec, ctx Context) ([]byte, error) {
	if spec.IsNone() {
		return src, nil
	}

	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	overlay := buildOverlay(img.Bounds(), spec, ctx)
	if overlay == nil {
		return src, nil
	}

	opacity := spec.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = 1.0
	}

	pos := anchorPoint(img.Bounds(), overlay.Bounds(), spec.Position)
	out := imaging.Overlay(img, overlay, pos, opacity)

	var buf bytes.Buffer
	if err := encodeAs(&buf, out, format); err != nil {
		return nil, fmt.Errorf("failed to encode composited image: %w", err)
	}
	return buf.Bytes(), nil
}

// buildOverlay 根据 spec 生成水印层，返回 nil 表示降级为无水印
func buildOverlay(srcBounds image.Rectangle, spec Spec, ctx Context) image.Image {
	switch spec.Kind {
	case KindStaticText, KindDynamicText:
		text := strings.TrimSpace(RenderTemplate(spec.Template, ctx))
		if text == "" {
			return nil
		}
		return renderTextLayer(text, textScale(srcBounds))

	case KindStaticImage:
		wm, err := imaging.Decode(bytes.NewReader(spec.SourceImage))
		if err != nil {
			return nil
		}
		return fitOverlay(wm, srcBounds)

	case KindStaticQRCode, KindDynamicQRCode:
		content := strings.TrimSpace(RenderTemplate(spec.Template, ctx))
		if content == "" {
			return nil
		}
		qr, err := qrcode.New(content, qrcode.Medium)
		if err != nil {
			return nil
		}
		return qr.Image(qrSize(srcBounds))

	default:
		return nil
	}
}

// renderTextLayer 把文本栅格化为透明背景图层
// 白字加深色偏移底衬，放大采用最近邻保持字形锐利
func renderTextLayer(text string, scale int) image.Image {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineHeight := metrics.Height.Ceil()
	textWidth := font.MeasureString(face, text).Ceil()

	const pad = 4
	layer := image.NewRGBA(image.Rect(0, 0, textWidth+2*pad+1, lineHeight+2*pad+1))

	shadow := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(color.RGBA{A: 200}),
		Face: face,
		Dot:  fixed.P(pad+1, pad+ascent+1),
	}
	shadow.DrawString(text)

	fill := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(pad, pad+ascent),
	}
	fill.DrawString(text)

	if scale > 1 {
		return imaging.Resize(layer, layer.Bounds().Dx()*scale, 0, imaging.NearestNeighbor)
	}
	return layer
}

// textScale 根据源图片宽度决定文字层放大倍数
func textScale(srcBounds image.Rectangle) int {
	scale := srcBounds.Dx() / 640
	if scale < 1 {
		return 1
	}
	if scale > 4 {
		return 4
	}
	return scale
}

// qrSize 二维码边长取源图片短边的四分之一，限制在 64~256 像素
func qrSize(srcBounds image.Rectangle) int {
	short := srcBounds.Dx()
	if srcBounds.Dy() < short {
		short = srcBounds.Dy()
	}
	size := short / 4
	if size < 64 {
		return 64
	}
	if size > 256 {
		return 256
	}
	return size
}

// fitOverlay 水印图过大时等比缩小到源图片宽度的三分之一
func fitOverlay(wm image.Image, srcBounds image.Rectangle) image.Image {
	maxWidth := srcBounds.Dx() / 3
	if maxWidth < 1 {
		maxWidth = 1
	}
	if wm.Bounds().Dx() > maxWidth {
		return imaging.Resize(wm, maxWidth, 0, imaging.Lanczos)
	}
	return wm
}

// encodeAs 按源格式重新编码，webp 等无编码器的格式回退到 PNG
func encodeAs(buf *bytes.Buffer, img image.Image, format string) error {
	switch format {
	case "jpeg":
		return imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(90))
	case "gif":
		return imaging.Encode(buf, img, imaging.GIF)
	case "bmp":
		return imaging.Encode(buf, img, imaging.BMP)
	default:
		return imaging.Encode(buf, img, imaging.PNG)
	}
}
