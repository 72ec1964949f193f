package http

import "github.com/gin-gonic/gin"

// ErrorResponse 以统一的 {"error": message} 格式返回错误
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// SuccessResponse 直接序列化 data 作为响应体
// 房间接口要求返回裸对象或数组，因此不额外包一层 data 字段
func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}
