// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"doc-insight-go/internal/middleware"
	"doc-insight-go/internal/model"
	"doc-insight-go/pkg/log"

	"github.com/gin-gonic/gin"
)

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"code":    status,
		"message": message,
		"data":    data,
	})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    status,
		"message": message,
	})
}

// writeError 把业务错误映射为 HTTP 状态码。内部错误只返回 internalMessage，详细信息写日志。
func writeError(c *gin.Context, err error, internalMessage string) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, model.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, model.ErrConflict):
		fail(c, http.StatusConflict, "Resource already exists")
	case errors.Is(err, model.ErrNotFound):
		fail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, model.ErrRateLimited):
		fail(c, http.StatusTooManyRequests, "Too many requests")
	case errors.Is(err, model.ErrUnavailable):
		log.Warnw("依赖服务不可用", "path", c.Request.URL.Path, "error", err)
		fail(c, http.StatusServiceUnavailable, "Service unavailable")
	default:
		log.Errorw("请求处理失败", "path", c.Request.URL.Path, "error", err)
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, internalMessage)
	}
}

// principal 读取认证中间件写入的身份；缺失时直接返回 401。
func principal(c *gin.Context) (model.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	return p, ok
}
