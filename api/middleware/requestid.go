package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求 ID 的头部字段名
const RequestIDHeader = "X-Request-ID"

// ContextRequestIDKey 请求 ID 在 gin 上下文中的键
const ContextRequestIDKey = "request_id"

// RequestID 为每个请求生成或透传追踪 ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(ContextRequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)

		c.Next()
	}
}
