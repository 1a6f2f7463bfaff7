// Package main 是应用程序的入口点。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doc-insight-go/internal/config"
	"doc-insight-go/internal/handler"
	"doc-insight-go/internal/pipeline"
	"doc-insight-go/internal/repository"
	"doc-insight-go/internal/service"
	"doc-insight-go/pkg/database"
	"doc-insight-go/pkg/es"
	"doc-insight-go/pkg/kafka"
	"doc-insight-go/pkg/llm"
	"doc-insight-go/pkg/log"
	"doc-insight-go/pkg/metrics"
	"doc-insight-go/pkg/ocr"
	"doc-insight-go/pkg/storage"
	"doc-insight-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 初始化配置
	config.Init(*configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. 初始化数据库、Redis 和对象存储
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.AutoMigrate(database.DB); err != nil {
		log.Fatal("数据库迁移失败", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		log.Fatal("初始化对象存储失败", err)
	}
	if err := store.EnsureBucket(rootCtx); err != nil {
		log.Fatal("检查对象存储桶失败", err)
	}

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	docRepo := repository.NewDocumentRepository(database.DB)
	tokenRepo := repository.NewTokenRepository(database.RDB)

	// 5. 指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// 6. 可选的搜索索引与事件流
	var index service.SearchIndex
	if cfg.Elasticsearch.Addresses != "" {
		esClient, err := es.NewClient(cfg.Elasticsearch)
		if err != nil {
			log.Fatal("初始化 Elasticsearch 失败", err)
		}
		if err := esClient.EnsureIndex(rootCtx); err != nil {
			log.Fatal("初始化 Elasticsearch 索引失败", err)
		}
		index = esClient
	} else {
		log.Info("Elasticsearch 未配置，全文检索已禁用")
	}
	searchService := service.NewSearchService(index)

	var publisher pipeline.Publisher
	var producer *kafka.Producer
	if cfg.Kafka.Brokers != "" {
		producer = kafka.NewProducer(cfg.Kafka)
		publisher = producer
		consumer := kafka.NewConsumer(cfg.Kafka, searchService)
		go func() {
			if err := consumer.Run(rootCtx); err != nil {
				log.Error("Kafka 消费者异常退出", err)
			}
		}()
	} else if index != nil {
		// 没有 Kafka 时在请求内直接写索引
		publisher = pipeline.PublisherFunc(searchService.Handle)
	}

	// 7. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenExpireHours)
	llmClient := llm.NewClient(cfg.LLM)
	ocrClient := ocr.NewClient(cfg.OCR)

	userService := service.NewUserService(userRepo, tokenRepo, jwtManager)
	processor := pipeline.NewProcessor(ocrClient, store, docRepo, llmClient, publisher, collector)
	documentService := service.NewDocumentService(docRepo, processor, llmClient, store, collector)

	if cfg.Seed.Email != "" {
		if err := userService.EnsureUser(rootCtx, cfg.Seed.Email, cfg.Seed.Password); err != nil {
			log.Error("创建初始用户失败", err)
		}
	}

	// 8. 设置 Gin 模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	r := handler.NewRouter(handler.RouterDeps{
		UserService:     userService,
		DocumentService: documentService,
		SearchService:   searchService,
		Metrics:         collector,
		MetricsHandler:  metrics.Handler(registry),
		Upload:          cfg.Upload,
		RateLimit:       cfg.RateLimit,
	})

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP 服务监听失败: %s", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}
	stop()
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
	log.Info("服务已优雅关闭")
}
