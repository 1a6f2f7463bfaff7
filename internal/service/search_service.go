package service

import (
	"context"
	"fmt"
	"strings"

	"doc-insight-go/internal/model"
	"doc-insight-go/pkg/es"
	"doc-insight-go/pkg/tasks"
)

const defaultSearchSize = 10

// SearchIndex 是全文索引的读写接口。
type SearchIndex interface {
	Index(ctx context.Context, doc es.IndexedDocument) error
	Search(ctx context.Context, ownerID uint, query string, size int) ([]model.SearchHit, error)
}

// SearchService 提供按用户隔离的全文检索，并负责把入库事件写入索引。
type SearchService interface {
	Search(ctx context.Context, principal model.Principal, query string) ([]model.SearchHit, error)
	Handle(ctx context.Context, evt tasks.DocumentIngestedEvent) error
}

type searchService struct {
	index SearchIndex
}

// NewSearchService 创建 SearchService。index 为 nil 时检索返回 ErrUnavailable。
func NewSearchService(index SearchIndex) SearchService {
	return &searchService{index: index}
}

func (s *searchService) Search(ctx context.Context, principal model.Principal, query string) ([]model.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", model.ErrInvalidInput)
	}
	if s.index == nil {
		return nil, fmt.Errorf("search is not configured: %w", model.ErrUnavailable)
	}
	return s.index.Search(ctx, principal.ID, query, defaultSearchSize)
}

// Handle 将一条入库事件写入索引，满足 kafka.EventHandler。
func (s *searchService) Handle(ctx context.Context, evt tasks.DocumentIngestedEvent) error {
	if s.index == nil {
		return nil
	}
	return s.index.Index(ctx, es.IndexedDocument{
		DocumentID:  evt.DocumentID,
		UserID:      evt.UserID,
		FileName:    evt.FileName,
		TextContent: evt.TextContent,
		CreatedAt:   evt.CreatedAt,
	})
}
