// Package metrics 提供 Prometheus 指标的收集与暴露。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 流水线阶段结果标签。
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder 是流水线和 HTTP 中间件使用的指标接口。
type Recorder interface {
	RecordStage(stage, outcome string, duration time.Duration)
	RecordHTTPRequest(method, route string, status int)
	RecordConversation()
}

// Collector 是基于 Prometheus 的 Recorder 实现。
type Collector struct {
	stageTotal    *prometheus.CounterVec
	stageSeconds  *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	conversations prometheus.Counter
}

// NewCollector 创建 Collector，并将指标注册到 reg。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		stageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docinsight_pipeline_stage_total",
			Help: "上传流水线各阶段按结果计数",
		}, []string{"stage", "outcome"}),
		stageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docinsight_pipeline_stage_seconds",
			Help:    "上传流水线各阶段耗时（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docinsight_http_requests_total",
			Help: "按方法、路由和状态码统计的 HTTP 请求数",
		}, []string{"method", "route", "status"}),
		conversations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docinsight_conversations_total",
			Help: "已保存的问答记录总数",
		}),
	}

	reg.MustRegister(
		c.stageTotal,
		c.stageSeconds,
		c.httpRequests,
		c.conversations,
	)
	return c
}

// RecordStage 记录一次阶段执行的结果与耗时。
func (c *Collector) RecordStage(stage, outcome string, duration time.Duration) {
	c.stageTotal.WithLabelValues(stage, outcome).Inc()
	c.stageSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordHTTPRequest 记录一次 HTTP 请求。
func (c *Collector) RecordHTTPRequest(method, route string, status int) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (c *Collector) RecordConversation() {
	c.conversations.Inc()
}

// Handler 返回供 Prometheus 抓取的 HTTP handler。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop 是不记录任何指标的 Recorder。
type Nop struct{}

func (Nop) RecordStage(string, string, time.Duration) {}
func (Nop) RecordHTTPRequest(string, string, int)     {}
func (Nop) RecordConversation()                       {}
