package app

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// AdminAuth 管理接口认证
// 请求头 Authorization: Bearer <LINELOAD_PASS>，与启动时生成的bcrypt哈希比较
type AdminAuth struct {
	passwordHash []byte
}

// NewAdminAuth 创建管理认证（只保存哈希，不保留明文）
func NewAdminAuth(password string) (*AdminAuth, error) {
	if password == "" {
		return nil, fmt.Errorf("管理密码不能为空")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("生成密码哈希失败: %w", err)
	}
	return &AdminAuth{passwordHash: hash}, nil
}

// RequireAdmin 认证中间件
func (a *AdminAuth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		const prefix = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, prefix) {
			token := strings.TrimPrefix(authHeader, prefix)
			if bcrypt.CompareHashAndPassword(a.passwordHash, []byte(token)) == nil {
				c.Next()
				return
			}
		}

		log.Printf("[WARN]  管理接口认证失败: IP=%s, path=%s", c.ClientIP(), c.Request.URL.Path)
		RespondErrorMsg(c, http.StatusUnauthorized, "未授权访问")
		c.Abort()
	}
}

// Throttle 全局令牌桶限流中间件（手动触发检查共用一个桶）
func Throttle(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			RespondErrorMsg(c, http.StatusTooManyRequests, "触发过于频繁，请稍后重试")
			c.Abort()
			return
		}
		c.Next()
	}
}
