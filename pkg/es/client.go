// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"doc-insight-go/internal/config"
	"doc-insight-go/internal/model"
	"doc-insight-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"document_id": { "type": "keyword" },
			"user_id": { "type": "long" },
			"file_name": { "type": "keyword" },
			"text_content": { "type": "text", "analyzer": "standard" },
			"created_at": { "type": "date" }
		}
	}
}`

// IndexedDocument 是写入搜索索引的文档结构。
type IndexedDocument struct {
	DocumentID  string    `json:"document_id"`
	UserID      uint      `json:"user_id"`
	FileName    string    `json:"file_name"`
	TextContent string    `json:"text_content"`
	CreatedAt   time.Time `json:"created_at"`
}

// Client 在单个索引上提供写入与检索。
type Client struct {
	es    *elasticsearch.Client
	index string
}

// NewClient 创建 Elasticsearch 客户端，多个地址以逗号分隔。
func NewClient(esCfg config.ElasticsearchConfig) (*Client, error) {
	var addrs []string
	for _, a := range strings.Split(esCfg.Addresses, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addrs,
		Username:  esCfg.Username,
		Password:  esCfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("init elasticsearch client: %w", err)
	}
	return &Client{es: client, index: esCfg.IndexName}, nil
}

// EnsureIndex 检查索引是否存在，如果不存在则创建它。
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("检查索引是否存在时出错: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", c.index)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", c.index, res.StatusCode)
	}

	res, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("创建索引 '%s' 失败: %w", c.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", c.index, res.String())
	}
	log.Infof("索引 '%s' 创建成功", c.index)
	return nil
}

// Index 以文档 ID 为主键写入（覆盖）一条索引记录。
func (c *Client) Index(ctx context.Context, doc IndexedDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: doc.DocumentID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("index document %s: %w", doc.DocumentID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index document %s: elasticsearch returned %s", doc.DocumentID, res.Status())
	}
	return nil
}

// Search 在 ownerID 的文档内做全文检索，返回带高亮片段的命中。
func (c *Client) Search(ctx context.Context, ownerID uint, query string, size int) ([]model.SearchHit, error) {
	body, err := json.Marshal(buildSearchQuery(ownerID, query, size))
	if err != nil {
		return nil, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w: %w", model.ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search documents: elasticsearch returned %s: %w", res.Status(), model.ErrUnavailable)
	}
	return parseSearchResponse(res.Body)
}

func buildSearchQuery(ownerID uint, query string, size int) map[string]any {
	if size <= 0 {
		size = 10
	}
	return map[string]any{
		"size":    size,
		"_source": []string{"document_id", "file_name"},
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					map[string]any{"match": map[string]any{"text_content": query}},
				},
				"filter": []any{
					map[string]any{"term": map[string]any{"user_id": ownerID}},
				},
			},
		},
		"highlight": map[string]any{
			"fields": map[string]any{
				"text_content": map[string]any{"fragment_size": 150, "number_of_fragments": 1},
			},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source struct {
				DocumentID string `json:"document_id"`
				FileName   string `json:"file_name"`
			} `json:"_source"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
}

func parseSearchResponse(r io.Reader) ([]model.SearchHit, error) {
	var sr searchResponse
	if err := json.NewDecoder(r).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	hits := make([]model.SearchHit, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		id := h.Source.DocumentID
		if id == "" {
			id = h.ID
		}
		hit := model.SearchHit{ID: id, FileName: h.Source.FileName, Score: h.Score}
		if frags := h.Highlight["text_content"]; len(frags) > 0 {
			hit.Snippet = frags[0]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
