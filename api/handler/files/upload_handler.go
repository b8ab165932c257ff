package files

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luoxir/photo-store/api/common"
	"github.com/luoxir/photo-store/config"
	"github.com/luoxir/photo-store/internal/upload"
	"github.com/luoxir/photo-store/internal/watermark"
	"github.com/luoxir/photo-store/storage"
)

// Upload 处理单文件上传
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "A file is required under the 'file' key")
		return
	}

	logicalPath := c.PostForm("path")
	if logicalPath == "" {
		common.RespondError(c, http.StatusBadRequest, "The 'path' field is required")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Unable to read uploaded file")
		return
	}
	defer src.Close()

	result, err := h.uploader.Upload(c.Request.Context(), upload.Request{
		LogicalPath: logicalPath,
		AlbumID:     c.PostForm("album_id"),
		Username:    c.PostForm("username"),
		Body:        src,
		MaxBytes:    config.Get().MaxUploadBytes(),
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidPath):
			common.RespondError(c, http.StatusBadRequest, "Invalid upload path")
		case errors.Is(err, watermark.ErrImageDecode):
			common.RespondError(c, http.StatusBadRequest, "Uploaded file is not a valid image")
		case errors.Is(err, upload.ErrTooLarge):
			common.RespondError(c, http.StatusRequestEntityTooLarge, "Uploaded file exceeds the size limit")
		default:
			common.RespondError(c, http.StatusInternalServerError, "Failed to store file")
		}
		return
	}

	common.RespondSuccess(c, gin.H{
		"filePath": result.StoredPath,
		"fileInfo": gin.H{
			"size":       result.SizeBytes,
			"uploadedAt": result.UploadedAt,
		},
	})
}
