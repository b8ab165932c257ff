package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luoxir/photo-store/utils"
)

// AccessLog 访问日志中间件，带请求 ID 与耗时
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Printf("[%s] %s %s %d %s",
			c.GetString(ContextRequestIDKey),
			c.Request.Method,
			utils.SanitizeLogMessage(path),
			c.Writer.Status(),
			time.Since(startTime).Round(time.Millisecond),
		)
	}
}
