package watermark

import "image"

// anchorMargin 水印与图片边缘的间距（像素）
const anchorMargin = 16

// anchorPoint 计算水印层左上角在源图片中的位置
// 锚点非法或缺省时落在右下角
func anchorPoint(src, overlay image.Rectangle, position Position) image.Point {
	srcW, srcH := src.Dx(), src.Dy()
	ovW, ovH := overlay.Dx(), overlay.Dy()

	left := anchorMargin
	centerX := (srcW - ovW) / 2
	right := srcW - ovW - anchorMargin

	top := anchorMargin
	centerY := (srcH - ovH) / 2
	bottom := srcH - ovH - anchorMargin

	var x, y int
	switch position {
	case PositionTopLeft:
		x, y = left, top
	case PositionTopCenter:
		x, y = centerX, top
	case PositionTopRight:
		x, y = right, top
	case PositionCenterLeft:
		x, y = left, centerY
	case PositionCenter:
		x, y = centerX, centerY
	case PositionCenterRight:
		x, y = right, centerY
	case PositionBottomLeft:
		x, y = left, bottom
	case PositionBottomCenter:
		x, y = centerX, bottom
	default:
		x, y = right, bottom
	}

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	return image.Pt(src.Min.X+x, src.Min.Y+y)
}
