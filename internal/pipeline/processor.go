// Package pipeline 定义了文档上传处理的核心流程：OCR → 存储 → 入库 → 解释。
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"doc-insight-go/internal/model"
	"doc-insight-go/pkg/log"
	"doc-insight-go/pkg/metrics"
	"doc-insight-go/pkg/tasks"
)

// Stage 标识流水线中可能失败的步骤。
type Stage string

const (
	StageOCR     Stage = "ocr"
	StageStorage Stage = "storage"
	StagePersist Stage = "persist"
	StageExplain Stage = "explain"
	StagePublish Stage = "publish"
)

// State 是一次上传在流水线中的状态。
type State int

const (
	Received State = iota
	OcrExtracted
	Stored
	Persisted
	Explained
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Received:
		return "received"
	case OcrExtracted:
		return "ocr_extracted"
	case Stored:
		return "stored"
	case Persisted:
		return "persisted"
	case Explained:
		return "explained"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StageError 表示流水线在某个阶段终止。errors.Is 可以穿透到底层的错误分类。
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// TextExtractor 从磁盘上的图片中提取文本。
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// ObjectStore 保存原始文件。
type ObjectStore interface {
	Upload(ctx context.Context, r io.Reader, size int64, ownerID uint, originalName, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// DocumentStore 持久化文档记录。
type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
}

// Explainer 为文档文本生成解释。
type Explainer interface {
	Summarize(ctx context.Context, documentText string) (string, error)
}

// Publisher 在文档处理完成后发布入库事件。
type Publisher interface {
	Publish(ctx context.Context, evt tasks.DocumentIngestedEvent) error
}

// PublisherFunc 让普通函数满足 Publisher。
type PublisherFunc func(ctx context.Context, evt tasks.DocumentIngestedEvent) error

func (f PublisherFunc) Publish(ctx context.Context, evt tasks.DocumentIngestedEvent) error {
	return f(ctx, evt)
}

// Input 描述一次已经通过校验、落在临时文件中的上传。
type Input struct {
	Owner    model.Principal
	FilePath string
	FileName string
	MimeType string
}

// Processor 封装了上传处理的所有依赖和逻辑。
type Processor struct {
	ocr       TextExtractor
	store     ObjectStore
	docs      DocumentStore
	explainer Explainer
	publisher Publisher
	metrics   metrics.Recorder
}

// NewProcessor 创建一个新的 Processor 实例。publisher 和 rec 可以为 nil。
func NewProcessor(
	ocr TextExtractor,
	store ObjectStore,
	docs DocumentStore,
	explainer Explainer,
	publisher Publisher,
	rec metrics.Recorder,
) *Processor {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Processor{
		ocr:       ocr,
		store:     store,
		docs:      docs,
		explainer: explainer,
		publisher: publisher,
		metrics:   rec,
	}
}

// run 记录一次状态流转及其结果。
type run struct {
	in    Input
	state State
}

func (r *run) advance(to State) {
	log.Infow("[Pipeline] 状态变更", "from", r.state.String(), "to", to.String(),
		"user_id", r.in.Owner.ID, "file_name", r.in.FileName)
	r.state = to
}

func (r *run) fail(stage Stage, err error) error {
	log.Errorw("[Pipeline] 处理失败", "stage", string(stage), "from", r.state.String(),
		"user_id", r.in.Owner.ID, "file_name", r.in.FileName, "error", err)
	r.state = Failed
	return &StageError{Stage: stage, Err: err}
}

func (p *Processor) observe(stage Stage, start time.Time, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	p.metrics.RecordStage(string(stage), outcome, time.Since(start))
}

// Process 顺序执行各阶段。任何阶段失败都返回 *StageError；解释失败不算失败，结果中 Explanation 为 nil。
// 临时文件由调用方负责删除。
func (p *Processor) Process(ctx context.Context, in Input) (*model.IngestResult, error) {
	r := &run{in: in, state: Received}
	log.Infof("[Pipeline] 开始处理文件, FileName: %s, UserID: %d", in.FileName, in.Owner.ID)

	// 1. OCR
	start := time.Now()
	text, err := p.ocr.ExtractText(ctx, in.FilePath)
	p.observe(StageOCR, start, err)
	if err != nil {
		return nil, r.fail(StageOCR, err)
	}
	r.advance(OcrExtracted)
	log.Infof("[Pipeline] OCR 完成, 文本长度: %d 字符", utf8.RuneCountInString(text))

	// 2. 上传原始文件
	start = time.Now()
	key, err := p.upload(ctx, in)
	p.observe(StageStorage, start, err)
	if err != nil {
		return nil, r.fail(StageStorage, err)
	}
	r.advance(Stored)

	// 3. 写入数据库，失败时尽量删除已上传的对象
	doc := &model.Document{
		UserID:      in.Owner.ID,
		FileName:    in.FileName,
		MimeType:    in.MimeType,
		TextContent: text,
		StorageKey:  key,
	}
	start = time.Now()
	err = p.docs.Create(ctx, doc)
	p.observe(StagePersist, start, err)
	if err != nil {
		p.compensate(ctx, key)
		return nil, r.fail(StagePersist, err)
	}
	r.advance(Persisted)

	// 4. 生成解释
	result := &model.IngestResult{ID: doc.ID, FileName: doc.FileName, TextContent: doc.TextContent}
	start = time.Now()
	summary, err := p.explainer.Summarize(ctx, text)
	p.observe(StageExplain, start, err)
	if err != nil {
		log.Warnw("[Pipeline] 生成解释失败，文档已保存，返回空解释", "document_id", doc.ID, "error", err)
	} else {
		result.Explanation = &summary
		r.advance(Explained)
	}

	r.advance(Completed)
	p.publish(ctx, doc)
	log.Infof("[Pipeline] 文件处理成功完成, DocumentID: %s", doc.ID)
	return result, nil
}

func (p *Processor) upload(ctx context.Context, in Input) (string, error) {
	f, err := os.Open(in.FilePath)
	if err != nil {
		return "", fmt.Errorf("open upload: %w: %w", model.ErrStorage, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat upload: %w: %w", model.ErrStorage, err)
	}
	return p.store.Upload(ctx, f, info.Size(), in.Owner.ID, in.FileName, in.MimeType)
}

func (p *Processor) compensate(ctx context.Context, key string) {
	if err := p.store.Remove(context.WithoutCancel(ctx), key); err != nil {
		log.Errorw("[Pipeline] 回滚已上传对象失败", "key", key, "error", err)
		return
	}
	log.Infow("[Pipeline] 已回滚上传对象", "key", key)
}

func (p *Processor) publish(ctx context.Context, doc *model.Document) {
	if p.publisher == nil {
		return
	}
	start := time.Now()
	err := p.publisher.Publish(ctx, tasks.DocumentIngestedEvent{
		DocumentID:  doc.ID,
		UserID:      doc.UserID,
		FileName:    doc.FileName,
		MimeType:    doc.MimeType,
		StorageKey:  doc.StorageKey,
		TextContent: doc.TextContent,
		CreatedAt:   doc.CreatedAt,
	})
	p.observe(StagePublish, start, err)
	if err != nil {
		log.Warnw("[Pipeline] 发布入库事件失败", "document_id", doc.ID, "error", err)
	}
}
