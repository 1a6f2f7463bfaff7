// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"doc-insight-go/internal/config"
	"doc-insight-go/pkg/log"
	"doc-insight-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// MaxAttempts 是单条消息处理失败后在进程内的最大尝试次数。
const MaxAttempts = 3

// EventHandler defines the interface for any service that can process an ingestion event.
// This decouples the Kafka consumer from the concrete indexing implementation.
type EventHandler interface {
	Handle(ctx context.Context, evt tasks.DocumentIngestedEvent) error
}

// Brokers 将逗号分隔的 broker 列表拆分为切片。
func Brokers(list string) []string {
	var out []string
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer 发布入库事件。
type Producer struct {
	w messageWriter
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(Brokers(cfg.Brokers)...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{w: w}
}

// Publish 以文档 ID 为 key 发送一条入库事件。
func (p *Producer) Publish(ctx context.Context, evt tasks.DocumentIngestedEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{Key: []byte(evt.DocumentID), Value: value}); err != nil {
		return fmt.Errorf("publish document %s: %w", evt.DocumentID, err)
	}
	return nil
}

// Close 关闭生产者。
func (p *Producer) Close() error {
	return p.w.Close()
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer 消费入库事件并交给 EventHandler 处理，处理完成后手动提交 offset。
type Consumer struct {
	r       messageReader
	handler EventHandler
	backoff time.Duration
}

// NewConsumer 创建一个消费者组成员。
func NewConsumer(cfg config.KafkaConfig, handler EventHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  Brokers(cfg.Brokers),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{r: r, handler: handler, backoff: time.Second}
}

// Run 阻塞消费直到 ctx 被取消，返回时关闭 reader。读取失败时退避后继续，不会自行退出。
func (c *Consumer) Run(ctx context.Context) error {
	log.Info("Kafka 消费者已启动")
	defer func() {
		if err := c.r.Close(); err != nil {
			log.Error("关闭 Kafka 消费者失败", err)
		}
	}()

	failures := 0
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			failures++
			wait := fetchBackoff(c.backoff, failures)
			log.Warnw("从 Kafka 读取消息失败，稍后重试", "error", err, "failures", failures, "wait", wait)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}
		failures = 0
		if !c.handleMessage(ctx, m) {
			return nil
		}
		if err := c.r.CommitMessages(ctx, m); err != nil {
			log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
		}
	}
}

// maxFetchBackoff 是连续读取失败时的最长等待时间。
const maxFetchBackoff = 30 * time.Second

// fetchBackoff 按连续失败次数指数退避，上限 maxFetchBackoff。
func fetchBackoff(base time.Duration, failures int) time.Duration {
	wait := base
	for i := 1; i < failures && wait < maxFetchBackoff; i++ {
		wait *= 2
	}
	if wait > maxFetchBackoff {
		wait = maxFetchBackoff
	}
	return wait
}

// handleMessage 处理单条消息。格式错误的消息直接跳过；处理失败时最多重试 MaxAttempts 次。
// 返回 false 表示重试期间 ctx 被取消，此时不应提交 offset。
func (c *Consumer) handleMessage(ctx context.Context, m kafka.Message) bool {
	var evt tasks.DocumentIngestedEvent
	if err := json.Unmarshal(m.Value, &evt); err != nil {
		log.Errorf("无法解析 Kafka 消息: %v, offset: %d", err, m.Offset)
		return true
	}

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		err := c.handler.Handle(ctx, evt)
		if err == nil {
			log.Infow("入库事件处理成功", "document_id", evt.DocumentID, "attempt", attempt)
			return true
		}
		log.Warnw("入库事件处理失败", "document_id", evt.DocumentID, "attempt", attempt, "error", err)
		if attempt == MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
	log.Errorw("入库事件多次失败，跳过该消息", "document_id", evt.DocumentID, "attempts", MaxAttempts)
	return true
}
