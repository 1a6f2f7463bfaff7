package model

import "time"

// Document 对应 documents 表，记录一次上传的元数据与 OCR 提取的文本。
// 文档只对其所有者可见，所有读取都必须同时按 id 和 user_id 过滤。
type Document struct {
	ID            string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID        uint           `gorm:"index;not null" json:"userId"`
	User          *User          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FileName      string         `gorm:"type:varchar(255);not null" json:"fileName"`
	MimeType      string         `gorm:"type:varchar(100);not null" json:"mimeType"`
	TextContent   string         `gorm:"type:longtext" json:"textContent"`
	StorageKey    string         `gorm:"type:varchar(512);not null" json:"-"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	Conversations []Conversation `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"conversations"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}

// DocumentSummary 是列表接口使用的投影，不包含文本内容。
type DocumentSummary struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IngestResult 是上传流水线成功结束后返回给调用方的结果。
// Explanation 为 nil 表示文档已入库但模型解释生成失败。
type IngestResult struct {
	ID          string  `json:"id"`
	FileName    string  `json:"fileName"`
	TextContent string  `json:"textContent"`
	Explanation *string `json:"explanation"`
}

// SearchHit 是全文检索的一条命中结果。
type SearchHit struct {
	ID       string  `json:"id"`
	FileName string  `json:"fileName"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet"`
}
