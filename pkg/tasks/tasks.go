// Package tasks defines the structure for events that are sent to Kafka.
package tasks

import "time"

// DocumentIngestedEvent 在一次上传流水线成功完成后发布，消费者据此更新搜索索引。
type DocumentIngestedEvent struct {
	DocumentID  string    `json:"document_id"`
	UserID      uint      `json:"user_id"`
	FileName    string    `json:"file_name"`
	MimeType    string    `json:"mime_type"`
	StorageKey  string    `json:"storage_key"`
	TextContent string    `json:"text_content"`
	CreatedAt   time.Time `json:"created_at"`
}
