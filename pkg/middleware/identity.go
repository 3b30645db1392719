package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 身份由上游网关认证后通过请求头透传，本服务只做所有权/角色比对。
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderUserEmail = "X-User-Email"

	UserIDKey    = "user_id"
	UserRoleKey  = "user_role"
	UserEmailKey = "user_email"

	// RoleAdmin 管理员角色
	RoleAdmin = "admin"
)

// RequireUser 要求请求携带已认证的用户身份
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Set(UserIDKey, userID)
		c.Set(UserRoleKey, c.GetHeader(HeaderUserRole))
		c.Set(UserEmailKey, c.GetHeader(HeaderUserEmail))
		c.Next()
	}
}

// RequireRole 要求请求者具备指定角色
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(UserRoleKey) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// UserID 获取当前请求用户 ID
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// UserRole 获取当前请求用户角色
func UserRole(c *gin.Context) string {
	return c.GetString(UserRoleKey)
}

// UserEmail 获取当前请求用户邮箱
func UserEmail(c *gin.Context) string {
	return c.GetString(UserEmailKey)
}

// IsAdmin 当前请求者是否为管理员
func IsAdmin(c *gin.Context) bool {
	return UserRole(c) == RoleAdmin
}
