package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SidKey 是设备会话 ID 在 gin.Context 中的键名。
const SidKey = "sid"

// DeviceSession 从 X-Device-ID 请求头（或 sid 查询参数，WebSocket
// 握手无法携带自定义头）提取设备会话 ID。所有持久化状态都按此
// ID 隔离，缺失则拒绝请求。
func DeviceSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetHeader("X-Device-ID")
		if sid == "" {
			sid = c.Query("sid")
		}
		if sid == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "缺少设备会话 ID（X-Device-ID 请求头或 sid 参数）",
				"data":    nil,
			})
			return
		}
		c.Set(SidKey, sid)
		c.Next()
	}
}

// Sid 读取当前请求的设备会话 ID。
func Sid(c *gin.Context) string {
	return c.GetString(SidKey)
}
