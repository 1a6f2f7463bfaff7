package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"doc-insight-go/internal/model"
	"doc-insight-go/internal/pipeline"
	"doc-insight-go/internal/repository"
	"doc-insight-go/pkg/log"
	"doc-insight-go/pkg/metrics"
	"doc-insight-go/pkg/storage"
)

// Ingester 执行一次上传流水线。
type Ingester interface {
	Process(ctx context.Context, in pipeline.Input) (*model.IngestResult, error)
}

// Answerer 基于文档文本回答问题。
type Answerer interface {
	Answer(ctx context.Context, documentText, question string) (string, error)
}

// ObjectFetcher 读取已存储的原始文件。
type ObjectFetcher interface {
	Fetch(ctx context.Context, key string) (*storage.Object, error)
}

// DocumentFile 是下载接口返回的文件内容，调用方负责关闭 Body。
type DocumentFile struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// DocumentService 定义了文档上传、查询、问答和下载的业务操作。
// 所有按 ID 的操作都会校验文档归属，不属于当前用户的文档与不存在的文档同样返回 ErrNotFound。
type DocumentService interface {
	Upload(ctx context.Context, in pipeline.Input) (*model.IngestResult, error)
	List(ctx context.Context, principal model.Principal) ([]model.DocumentSummary, error)
	Get(ctx context.Context, principal model.Principal, id string) (*model.Document, error)
	Ask(ctx context.Context, principal model.Principal, id, question string) (*model.QA, error)
	Download(ctx context.Context, principal model.Principal, id string) (*DocumentFile, error)
}

type documentService struct {
	docRepo  repository.DocumentRepository
	ingester Ingester
	answerer Answerer
	objects  ObjectFetcher
	metrics  metrics.Recorder
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(
	docRepo repository.DocumentRepository,
	ingester Ingester,
	answerer Answerer,
	objects ObjectFetcher,
	rec metrics.Recorder,
) DocumentService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &documentService{
		docRepo:  docRepo,
		ingester: ingester,
		answerer: answerer,
		objects:  objects,
		metrics:  rec,
	}
}

func (s *documentService) Upload(ctx context.Context, in pipeline.Input) (*model.IngestResult, error) {
	return s.ingester.Process(ctx, in)
}

func (s *documentService) List(ctx context.Context, principal model.Principal) ([]model.DocumentSummary, error) {
	return s.docRepo.ListByOwner(ctx, principal.ID)
}

func (s *documentService) Get(ctx context.Context, principal model.Principal, id string) (*model.Document, error) {
	return s.docRepo.GetByOwnerAndID(ctx, principal.ID, id)
}

// Ask 回答关于文档的问题并保存问答记录。模型调用失败时不写入任何记录。
func (s *documentService) Ask(ctx context.Context, principal model.Principal, id, question string) (*model.QA, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required: %w", model.ErrInvalidInput)
	}

	doc, err := s.docRepo.GetByOwnerAndID(ctx, principal.ID, id)
	if err != nil {
		return nil, err
	}

	answer, err := s.answerer.Answer(ctx, doc.TextContent, question)
	if err != nil {
		log.Errorw("[DocumentService] 生成回答失败", "document_id", id, "error", err)
		return nil, err
	}

	if _, err := s.docRepo.AddConversation(ctx, doc.ID, question, answer); err != nil {
		return nil, err
	}
	s.metrics.RecordConversation()
	return &model.QA{Question: question, Answer: answer}, nil
}

// Download 返回文档的原始文件，文件名与类型取自上传时的记录。
func (s *documentService) Download(ctx context.Context, principal model.Principal, id string) (*DocumentFile, error) {
	doc, err := s.docRepo.GetByOwnerAndID(ctx, principal.ID, id)
	if err != nil {
		return nil, err
	}
	obj, err := s.objects.Fetch(ctx, doc.StorageKey)
	if err != nil {
		return nil, err
	}
	contentType := doc.MimeType
	if contentType == "" {
		contentType = obj.ContentType
	}
	return &DocumentFile{
		FileName:    doc.FileName,
		ContentType: contentType,
		Size:        obj.Size,
		Body:        obj.Body,
	}, nil
}
