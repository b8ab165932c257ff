package files

import (
	"github.com/gin-gonic/gin"

	"github.com/luoxir/photo-store/api/common"
	"github.com/luoxir/photo-store/internal/metadata"
)

// Delete 删除存储的文件
func (h *Handler) Delete(c *gin.Context) {
	key, ok := h.paramKey(c)
	if !ok {
		return
	}

	if err := h.provider.DeleteWithContext(c.Request.Context(), key); err != nil {
		h.respondStorageError(c, err)
		return
	}

	h.store.RecordOperation(c.Request.Context(), metadata.Operation{
		Action: "delete",
		UserID: key.Owner,
		Detail: key.Name,
	})

	common.RespondSuccess(c, nil)
}
