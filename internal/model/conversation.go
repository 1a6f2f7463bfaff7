package model

import "time"

// Conversation 代表针对某个文档的一次问答，只追加不修改。
type Conversation struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID string    `gorm:"type:varchar(36);index;not null" json:"documentId"`
	Question   string    `gorm:"type:text;not null" json:"question"`
	Answer     string    `gorm:"type:text;not null" json:"answer"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Conversation) TableName() string {
	return "conversations"
}

// QA 是提问接口的响应体。
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
