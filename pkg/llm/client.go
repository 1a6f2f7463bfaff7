// Package llm provides a client for interacting with Large Language Models.
package llm

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
)

const (
	summarizeSystemPrompt = "You are an assistant that explains documents and invoices. Extract key information like dates, amounts, parties involved, and summarize the content concisely."
	answerSystemPrompt    = "You are an assistant that answers questions about documents and invoices. Be precise and concise."
)

// Client defines the interface for an LLM client.
type Client interface {
	// Summarize 返回对文档文本的简要解释。
	Summarize(ctx context.Context, documentText string) (string, error)
	// Answer 基于文档文本回答问题。
	Answer(ctx context.Context, documentText, question string) (string, error)
}

type openAIClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new OpenAI-compatible chat completion client.
func NewClient(cfg config.LLMConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &openAIClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) Summarize(ctx context.Context, documentText string) (string, error) {
	return c.complete(ctx, []Message{
		{Role: "system", Content: summarizeSystemPrompt},
		{Role: "user", Content: "Please explain this document: " + documentText},
	})
}

func (c *openAIClient) Answer(ctx context.Context, documentText, question string) (string, error) {
	return c.complete(ctx, []Message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Document content: %s\n\nQuestion: %s", documentText, question)},
	})
}

func (c *openAIClient) complete(ctx context.Context, messages []Message) (string, error) {
	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   false,
	}
	// 仅注入非零的生成参数
	if c.cfg.Generation.Temperature != 0 {
		t := c.cfg.Generation.Temperature
		reqBody.Temperature = &t
	}
	if c.cfg.Generation.TopP != 0 {
		p := c.cfg.Generation.TopP
		reqBody.TopP = &p
	}
	if c.cfg.Generation.MaxTokens != 0 {
		m := c.cfg.Generation.MaxTokens
		reqBody.MaxTokens = &m
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w: %w", model.ErrCompletion, err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w: %w", model.ErrCompletion, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat api: %w: %w", model.ErrCompletion, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("chat api returned status %s, body: %s: %w", resp.Status, string(bodyBytes), model.ErrCompletion)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w: %w", model.ErrCompletion, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat api returned no choices: %w", model.ErrCompletion)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
