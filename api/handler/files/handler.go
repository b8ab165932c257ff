package files

import (
	"github.com/luoxir/photo-store/internal/metadata"
	"github.com/luoxir/photo-store/internal/upload"
	"github.com/luoxir/photo-store/storage"
)

// Handler 文件处理器
type Handler struct {
	provider storage.Provider
	uploader *upload.Service
	store    metadata.Store
}

// NewHandler 创建文件处理器
func NewHandler(provider storage.Provider, uploader *upload.Service, store metadata.Store) *Handler {
	return &Handler{
		provider: provider,
		uploader: uploader,
		store:    store,
	}
}
