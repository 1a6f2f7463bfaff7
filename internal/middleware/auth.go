// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"context"
	"net/http"
	"strings"

	"doc-insight-go/internal/model"
	"doc-insight-go/pkg/log"

	"github.com/gin-gonic/gin"
)

const (
	principalKey = "principal"
	tokenKey     = "token"
)

// TokenVerifier 校验 token 并返回对应的身份。
type TokenVerifier interface {
	VerifyToken(ctx context.Context, tokenString string) (model.Principal, error)
}

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它会从请求头中提取 token，验证其有效性，并将 Principal 存入 Gin 的上下文中。
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "请求未包含授权头")
			return
		}

		// Token 以 "Bearer <token>" 的形式提供
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			abortUnauthorized(c, "无效的授权头格式")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))

		principal, err := verifier.VerifyToken(c.Request.Context(), tokenString)
		if err != nil {
			log.Warnw("token 校验失败", "path", c.Request.URL.Path, "error", err)
			abortUnauthorized(c, "无效或已过期的 token")
			return
		}

		c.Set(principalKey, principal)
		c.Set(tokenKey, tokenString)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}

// PrincipalFrom 返回认证中间件写入的身份。
func PrincipalFrom(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}

// TokenFrom 返回当前请求携带的原始 token。
func TokenFrom(c *gin.Context) string {
	return c.GetString(tokenKey)
}
