package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一错误响应结构，成功响应的字段由各处理器按接口约定平铺
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RespondSuccess 返回成功响应，extra 中的键合并进顶层 JSON
func RespondSuccess(c *gin.Context, extra gin.H) {
	body := gin.H{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// RespondError 返回错误响应
func RespondError(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{
		Success: false,
		Error:   message,
	})
}

// RespondErrorAbort 返回错误响应并中止后续处理链
func RespondErrorAbort(c *gin.Context, httpStatus int, message string) {
	c.AbortWithStatusJSON(httpStatus, Response{
		Success: false,
		Error:   message,
	})
}
