package middleware

import (
	"doc-insight-go/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 按方法、路由模板和状态码统计请求数。未匹配路由统一记为 "unmatched"。
func Metrics(rec metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		rec.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status())
	}
}
