package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// callerIDKey gin 上下文里存调用方身份的键
const callerIDKey = "caller_id"

// identityHeader 网关注入的身份头，到达这里时已经被上游校验过
// 本服务不做凭证校验（那是身份协作方的事），只取结果
const identityHeader = "X-Faculty-ID"

// TrustedIdentity 从请求头里取出已校验的调用方身份放进上下文
func TrustedIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(identityHeader); id != "" {
			c.Set(callerIDKey, id)
		}
		c.Next()
	}
}

// RequireIdentity 写接口必须带身份，否则 401
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerID(c) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CallerID 返回当前请求的调用方身份，没有则为空串
func CallerID(c *gin.Context) string {
	return c.GetString(callerIDKey)
}
