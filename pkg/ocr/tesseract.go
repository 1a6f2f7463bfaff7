// Package ocr 通过 Tesseract 从图片中提取文本。
package ocr

import (
	"context"
	"fmt"
	"strings"

	"doc-insight-go/internal/config"
	"doc-insight-go/internal/model"
	"doc-insight-go/pkg/log"

	"github.com/otiai10/gosseract/v2"
)

// engine 是 gosseract.Client 中被使用到的方法集合。
type engine interface {
	SetLanguage(langs ...string) error
	SetImage(imagepath string) error
	Text() (string, error)
	Close() error
}

// Client 每次识别都创建独立的 Tesseract 实例，可被多个请求并发使用。
type Client struct {
	language  string
	newEngine func() engine
}

// NewClient 创建 OCR 客户端，未配置语言时使用 eng。
func NewClient(cfg config.OCRConfig) *Client {
	lang := strings.TrimSpace(cfg.Language)
	if lang == "" {
		lang = "eng"
	}
	return &Client{
		language:  lang,
		newEngine: func() engine { return gosseract.NewClient() },
	}
}

// ExtractText 识别 path 指向的图片。语言数据加载失败时退回引擎默认语言再试一次。
func (c *Client) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("ocr %s: %w: %w", path, model.ErrOCR, err)
	}

	text, err := c.recognize(path, c.language)
	if err != nil && c.language != "" {
		log.Warnw("OCR 使用指定语言失败，改用默认语言重试", "language", c.language, "error", err)
		text, err = c.recognize(path, "")
	}
	if err != nil {
		return "", fmt.Errorf("ocr %s: %w: %w", path, model.ErrOCR, err)
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) recognize(path, language string) (string, error) {
	e := c.newEngine()
	defer e.Close()

	if language != "" {
		if err := e.SetLanguage(language); err != nil {
			return "", err
		}
	}
	if err := e.SetImage(path); err != nil {
		return "", err
	}
	return e.Text()
}
