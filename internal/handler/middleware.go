package handler

import (
	"log"
	"time"

	"homeserve/internal/model"
	"homeserve/internal/service"
	"homeserve/pkg/response"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// IdentityMiddleware 身份中间件
// 调用方身份由上游网关完成鉴权后通过请求头透传：
// X-User-ID 必填，X-User-Role 缺省按普通用户处理
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			response.Error(c, response.CodeUnauthorized, "缺少用户身份")
			c.Abort()
			return
		}

		role := c.GetHeader("X-User-Role")
		switch role {
		case model.RoleProfessional, model.RoleAdmin:
		default:
			role = model.RoleCustomer
		}

		c.Set(identityKey, service.Identity{UserID: userID, Role: role})
		c.Next()
	}
}

// AdminMiddleware 管理端接口仅限 admin 角色
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identityFrom(c).Role != model.RoleAdmin {
			response.Forbidden(c, "仅限管理员操作")
			c.Abort()
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) service.Identity {
	if v, ok := c.Get(identityKey); ok {
		if ident, ok := v.(service.Identity); ok {
			return ident
		}
	}
	return service.Identity{}
}

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// 处理请求
		c.Next()

		// 记录日志
		latency := time.Since(start)
		status := c.Writer.Status()

		if query != "" {
			path = path + "?" + query
		}

		log.Printf("[HTTP] %d | %13v | %15s | %-7s %s",
			status,
			latency,
			c.ClientIP(),
			c.Request.Method,
			path,
		)
	}
}

// RecoveryMiddleware 恢复中间件，防止 panic 导致服务崩溃
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[PANIC] %v", err)
				c.AbortWithStatusJSON(500, gin.H{
					"code":    500,
					"message": "服务器内部错误",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-User-ID, X-User-Role")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
