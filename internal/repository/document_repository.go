package repository

import (
	"context"
	"fmt"

	"doc-insight-go/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentRepository 定义了文档及其问答记录的持久化操作。
// 所有按文档读取的方法都以 (ownerID, id) 联合过滤，保证用户隔离。
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	ListByOwner(ctx context.Context, ownerID uint) ([]model.DocumentSummary, error)
	GetByOwnerAndID(ctx context.Context, ownerID uint, id string) (*model.Document, error)
	AddConversation(ctx context.Context, documentID, question, answer string) (*model.Conversation, error)
	CountConversations(ctx context.Context, documentID string) (int64, error)
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create 插入一条文档记录，ID 为空时生成 UUID。
func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Omit("User", "Conversations").Create(doc).Error; err != nil {
		return fmt.Errorf("create document: %w: %w", model.ErrRepository, err)
	}
	return nil
}

// ListByOwner 按创建时间倒序返回用户的文档摘要，不读取文本内容。
func (r *documentRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.DocumentSummary, error) {
	summaries := make([]model.DocumentSummary, 0)
	err := r.db.WithContext(ctx).
		Model(&model.Document{}).
		Select("id", "file_name", "created_at", "updated_at").
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("list documents: %w: %w", model.ErrRepository, err)
	}
	return summaries, nil
}

// GetByOwnerAndID 用一次 (id, user_id) 联合查询读取文档，并按时间倒序预加载问答记录。
// 文档不存在或属于其他用户时都返回 model.ErrNotFound。
func (r *documentRepository) GetByOwnerAndID(ctx context.Context, ownerID uint, id string) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).
		Preload("Conversations", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Order("id DESC")
		}).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&doc).Error
	if err != nil {
		return nil, translate(err, "get document")
	}
	return &doc, nil
}

// AddConversation 追加一条问答记录。
func (r *documentRepository) AddConversation(ctx context.Context, documentID, question, answer string) (*model.Conversation, error) {
	conv := &model.Conversation{
		DocumentID: documentID,
		Question:   question,
		Answer:     answer,
	}
	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, fmt.Errorf("add conversation: %w: %w", model.ErrRepository, err)
	}
	return conv, nil
}

// CountConversations 返回文档已有的问答数量。
func (r *documentRepository) CountConversations(ctx context.Context, documentID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("document_id = ?", documentID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count conversations: %w: %w", model.ErrRepository, err)
	}
	return n, nil
}
