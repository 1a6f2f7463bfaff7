package handler

import (
	"net/http"

	"doc-insight-go/internal/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler 提供当前用户文档内的全文检索。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search 处理 GET /upload/search?q=...
func (h *SearchHandler) Search(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	hits, err := h.searchService.Search(c.Request.Context(), p, c.Query("q"))
	if err != nil {
		writeError(c, err, "Error searching documents")
		return
	}
	respond(c, http.StatusOK, "success", hits)
}
