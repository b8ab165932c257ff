package files

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/luoxir/photo-store/api/common"
	"github.com/luoxir/photo-store/config"
	"github.com/luoxir/photo-store/storage"
	"github.com/luoxir/photo-store/utils"
	bufpool "github.com/luoxir/photo-store/utils/pool"
)

// GetPhoto 以静态资源方式返回存储的文件内容
func (h *Handler) GetPhoto(c *gin.Context) {
	key, ok := h.paramKey(c)
	if !ok {
		return
	}

	info, err := h.provider.StatWithContext(c.Request.Context(), key)
	if err != nil {
		h.respondStorageError(c, err)
		return
	}

	rc, err := h.provider.GetWithContext(c.Request.Context(), key)
	if err != nil {
		h.respondStorageError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", contentTypeByName(key.Name))
	c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
	c.Status(http.StatusOK)

	buf := bufpool.SharedBufferPool.Get()
	defer bufpool.SharedBufferPool.Put(buf)
	if _, err := io.CopyBuffer(c.Writer, rc, *buf); err != nil {
		// 响应已开始，无法再改写状态码
		c.Abort()
	}
}

// Info 返回单个文件的元信息
func (h *Handler) Info(c *gin.Context) {
	key, ok := h.paramKey(c)
	if !ok {
		return
	}

	info, err := h.provider.StatWithContext(c.Request.Context(), key)
	if err != nil {
		h.respondStorageError(c, err)
		return
	}

	common.RespondSuccess(c, gin.H{
		"fileInfo": gin.H{
			"path":       info.Path,
			"size":       info.Size,
			"createdAt":  info.CreatedAt,
			"modifiedAt": info.ModifiedAt,
			"url":        utils.BuildFileURL(config.Get().BaseURL(), info.Path),
		},
	})
}

// List 返回某个属主的全部文件，属主目录不存在时返回空列表
func (h *Handler) List(c *gin.Context) {
	ownerID := c.Param("ownerId")

	infos, err := h.provider.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.respondStorageError(c, err)
		return
	}

	baseURL := config.Get().BaseURL()
	files := make([]gin.H, 0, len(infos))
	for _, info := range infos {
		files = append(files, gin.H{
			"name":       info.Name,
			"path":       info.Path,
			"size":       info.Size,
			"createdAt":  info.CreatedAt,
			"modifiedAt": info.ModifiedAt,
			"url":        utils.BuildFileURL(baseURL, info.Path),
		})
	}

	common.RespondSuccess(c, gin.H{"files": files})
}

// paramKey 从路由参数组装存储键
func (h *Handler) paramKey(c *gin.Context) (storage.Key, bool) {
	key, err := storage.ParseKey(c.Param("ownerId") + "/" + c.Param("fileName"))
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid file path")
		return storage.Key{}, false
	}
	return key, true
}

// respondStorageError 将存储层错误映射为 HTTP 响应
func (h *Handler) respondStorageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		common.RespondError(c, http.StatusNotFound, "File not found")
	case errors.Is(err, storage.ErrInvalidPath):
		common.RespondError(c, http.StatusBadRequest, "Invalid file path")
	default:
		common.RespondError(c, http.StatusInternalServerError, "Storage error")
	}
}

// contentTypeByName 按扩展名推断内容类型
func contentTypeByName(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
