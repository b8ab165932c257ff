package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/luoxir/photo-store/api/common"
	"github.com/luoxir/photo-store/internal/export"
)

// IDList 接受数字、字符串或两者混合的 ID 数组，标量按单元素处理
type IDList []string

// UnmarshalJSON 将任意标量 ID 归一化为字符串
func (l *IDList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*l = nil
		return nil
	case []interface{}:
		out := make(IDList, 0, len(v))
		for _, item := range v {
			id, err := scalarID(item)
			if err != nil {
				return err
			}
			out = append(out, id)
		}
		*l = out
		return nil
	default:
		id, err := scalarID(v)
		if err != nil {
			return err
		}
		*l = IDList{id}
		return nil
	}
}

func scalarID(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported photo id type %T", v)
	}
}

// downloadZipRequest POST /download-zip 的请求体
type downloadZipRequest struct {
	PhotoIDs          IDList `json:"photo_ids"`
	UserID            string `json:"user_id"`
	Username          string `json:"username"`
	WatermarkType     string `json:"watermark_type"`
	WatermarkTemplate string `json:"watermark_template"`
}

// Handler 批量导出处理器
type Handler struct {
	exporter *export.Service
}

// NewHandler 创建批量导出处理器
func NewHandler(exporter *export.Service) *Handler {
	return &Handler{exporter: exporter}
}

// DownloadZip 将指定照片打包为 ZIP 流式返回
func (h *Handler) DownloadZip(c *gin.Context) {
	var req downloadZipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.PhotoIDs) == 0 {
		common.RespondError(c, http.StatusBadRequest, "photo_ids must not be empty")
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="photos.zip"`)
	c.Status(http.StatusOK)

	summary, err := h.exporter.ExportZip(c.Request.Context(), c.Writer, export.Request{
		PhotoIDs:          req.PhotoIDs,
		UserID:            req.UserID,
		Username:          req.Username,
		ClientIP:          c.ClientIP(),
		WatermarkKind:     req.WatermarkType,
		WatermarkTemplate: req.WatermarkTemplate,
	})
	if err != nil {
		// 响应头已发出，只能中断连接并记录
		if !errors.Is(err, context.Canceled) {
			log.Printf("Zip export aborted: %v", err)
		}
		c.Abort()
		return
	}
	log.Printf("Zip export finished: %d exported, %d skipped", summary.Exported, summary.Skipped)
}
