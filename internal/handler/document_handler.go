package handler

import (
	"mime"
	"net/http"

	"doc-insight-go/internal/service"
	"doc-insight-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 负责文档列表、详情、问答和下载。
type DocumentHandler struct {
	docService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(docService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// List 按创建时间倒序返回当前用户的文档。
func (h *DocumentHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	docs, err := h.docService.List(c.Request.Context(), p)
	if err != nil {
		writeError(c, err, "Error fetching documents")
		return
	}
	respond(c, http.StatusOK, "success", docs)
}

// Get 返回文档详情及其问答记录。
func (h *DocumentHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	doc, err := h.docService.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		writeError(c, err, "Error fetching document")
		return
	}
	respond(c, http.StatusOK, "success", doc)
}

// AskRequest 定义了提问 API 的请求体结构。
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask 回答关于文档的问题。
func (h *DocumentHandler) Ask(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Question is required")
		return
	}

	qa, err := h.docService.Ask(c.Request.Context(), p, c.Param("id"), req.Question)
	if err != nil {
		writeError(c, err, "Error processing question")
		return
	}
	respond(c, http.StatusOK, "success", qa)
}

// Download 以附件形式返回原始文件。
func (h *DocumentHandler) Download(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	file, err := h.docService.Download(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		writeError(c, err, "Error downloading document")
		return
	}
	defer file.Body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": file.FileName})
	c.Header("Content-Disposition", disposition)
	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, file.Body, nil)
	log.Infow("文档下载", "user_id", p.ID, "document_id", c.Param("id"))
}
