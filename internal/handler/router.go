package handler

import (
	"net/http"

	"doc-insight-go/internal/config"
	"doc-insight-go/internal/middleware"
	"doc-insight-go/internal/service"
	"doc-insight-go/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// RouterDeps 汇总了注册路由所需的依赖。MetricsHandler 为 nil 时不暴露 /metrics。
type RouterDeps struct {
	UserService     service.UserService
	DocumentService service.DocumentService
	SearchService   service.SearchService
	Metrics         metrics.Recorder
	MetricsHandler  http.Handler
	Upload          config.UploadConfig
	RateLimit       config.RateLimitConfig
}

// NewRouter 创建 Gin 引擎并注册全部路由。
func NewRouter(d RouterDeps) *gin.Engine {
	if d.Metrics == nil {
		d.Metrics = metrics.Nop{}
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.Metrics(d.Metrics), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(d.MetricsHandler))
	}

	authMW := middleware.AuthMiddleware(d.UserService)
	authHandler := NewAuthHandler(d.UserService)

	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authMW, authHandler.Logout)
		auth.GET("/me", authMW, authHandler.Me)
	}

	uploadLimiter := middleware.NewRateLimiter(d.RateLimit.UploadPerMinute, d.RateLimit.UploadBurst)
	askLimiter := middleware.NewRateLimiter(d.RateLimit.AskPerMinute, d.RateLimit.AskBurst)
	uploadHandler := NewUploadHandler(d.DocumentService, d.Upload.MaxSizeBytes, d.Upload.TempDir)
	docHandler := NewDocumentHandler(d.DocumentService)
	searchHandler := NewSearchHandler(d.SearchService)

	// Upload 路由组，需要认证
	upload := r.Group("/upload")
	upload.Use(authMW)
	{
		upload.POST("", uploadLimiter.Middleware(), uploadHandler.Upload)
		upload.GET("", docHandler.List)
		upload.GET("/search", searchHandler.Search)
		upload.GET("/:id", docHandler.Get)
		upload.POST("/:id/ask", askLimiter.Middleware(), docHandler.Ask)
		upload.GET("/:id/download", docHandler.Download)
	}
	return r
}
